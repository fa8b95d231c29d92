package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"github.com/txsociety/w5signer/pkg/core"
	"github.com/txsociety/w5signer/pkg/wallet"
	"log/slog"
	"net/http"
	"strconv"
)

const maxHistoryLimit = 1000

type Handler struct {
	db      storage
	signer  messageSigner
	testnet bool
}

func NewHandler(db storage, signer messageSigner, testnet bool) *Handler {
	return &Handler{
		db:      db,
		signer:  signer,
		testnet: testnet,
	}
}

type WalletInfo struct {
	Address    string  `json:"address"`
	RawAddress string  `json:"raw_address"`
	WalletID   int32   `json:"wallet_id"`
	Status     string  `json:"status"`
	Seqno      *uint32 `json:"seqno,omitempty"`
	PublicKey  string  `json:"public_key,omitempty"`
	// SignatureAuth is 1 or 0, -1 when the contract can not tell
	SignatureAuth *int     `json:"signature_auth,omitempty"`
	Extensions    []string `json:"extensions,omitempty"`
}

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	info, err := h.signer.Info(r.Context())
	if err != nil {
		slog.Error("get wallet info", "error", err)
		http.Error(w, core.ErrInternalServerError.Error(), http.StatusInternalServerError)
		return
	}
	res := WalletInfo{
		Address:    info.Address.ToHuman(false, h.testnet),
		RawAddress: info.Address.ToRaw(),
		WalletID:   info.WalletID,
		Status:     string(info.Status),
	}
	if info.State != nil {
		res.Seqno = &info.State.Seqno
		res.PublicKey = hexKey(info.State.PublicKey)
		res.SignatureAuth = &info.State.SignatureAuth
		for _, e := range info.State.Extensions {
			res.Extensions = append(res.Extensions, e.ToRaw())
		}
	}
	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		slog.Error("encode wallet", "error", err)
	}
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	h.buildMessage(w, r, h.signer.Queue)
}

func (h *Handler) estimateMessage(w http.ResponseWriter, r *http.Request) {
	h.buildMessage(w, r, h.signer.Estimate)
}

type buildFunc func(ctx context.Context, actions []wallet.Action) (core.OutboundMessage, error)

func (h *Handler) buildMessage(w http.ResponseWriter, r *http.Request, build buildFunc) {
	w.Header().Set("Content-Type", "application/json")
	if r.Body == nil {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	var data NewMessage
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		http.Error(w, "invalid message data: "+err.Error(), http.StatusBadRequest)
		return
	}
	actions, err := convertNewMessage(data)
	if err != nil {
		http.Error(w, "message data parsing error: "+err.Error(), http.StatusBadRequest)
		return
	}
	m, err := build(r.Context(), actions)
	if err != nil && errors.Is(err, wallet.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if err != nil {
		slog.Error("build message", "error", err)
		http.Error(w, core.ErrInternalServerError.Error(), http.StatusInternalServerError)
		return
	}
	err = json.NewEncoder(w).Encode(core.ConvertMessageToPrintable(m, h.testnet))
	if err != nil {
		slog.Error("encode message", "error", err)
	}
}

func (h *Handler) getMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	id, err := core.ParseMessageID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	m, err := h.db.GetMessage(r.Context(), id)
	if err != nil && errors.Is(err, core.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = json.NewEncoder(w).Encode(core.ConvertMessageToPrintable(m, h.testnet))
	if err != nil {
		slog.Error("encode message", "error", err)
	}
}

func (h *Handler) getMessageHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var (
		limit int64          = 20
		after core.MessageID // empty ID
		err   error
	)
	if limitQuery := r.URL.Query().Get("limit"); len(limitQuery) > 0 {
		limit, err = strconv.ParseInt(limitQuery, 10, 64)
		if err != nil {
			http.Error(w, "invalid limit: "+err.Error(), http.StatusBadRequest)
			return
		}
		if limit <= 0 || limit > maxHistoryLimit {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
	}
	if afterQuery := r.URL.Query().Get("after"); len(afterQuery) > 0 {
		id, err := core.ParseMessageID(afterQuery)
		if err != nil {
			http.Error(w, "invalid message ID: "+err.Error(), http.StatusBadRequest)
			return
		}
		after = id
	}
	messages, err := h.db.GetMessages(r.Context(), after, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	res := struct {
		Messages []core.OutboundMessagePrintable `json:"messages"`
	}{
		Messages: make([]core.OutboundMessagePrintable, 0, len(messages)),
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, core.ConvertMessageToPrintable(m, h.testnet))
	}
	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		slog.Error("encode messages", "error", err)
	}
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getMessageHistory(w, r)
	case http.MethodPost:
		h.createMessage(w, r)
	default:
		writeHttpError(w, http.StatusMethodNotAllowed, "only POST or GET method is supported")
		return
	}
}

func RegisterHandlers(mux *http.ServeMux, h *Handler, token string) {
	mux.HandleFunc("/v1/wallet", chain(get(h.getWallet), token))
	mux.HandleFunc("/v1/messages", chain(h.messages, token))
	mux.HandleFunc("/v1/messages/estimate", chain(post(h.estimateMessage), token))
	mux.HandleFunc("/v1/messages/{id}", chain(get(h.getMessage), token))
}

func hexKey(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	return hex.EncodeToString(key)
}
