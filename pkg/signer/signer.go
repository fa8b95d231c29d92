package signer

import (
	"context"
	"fmt"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/w5signer/pkg/core"
	"github.com/txsociety/w5signer/pkg/wallet"
	"golang.org/x/crypto/ed25519"
	"log/slog"
	"sync"
	"time"
)

// Signer builds, signs and journals messages of a single wallet.
type Signer struct {
	wallet  *wallet.Wallet
	key     ed25519.PrivateKey
	chain   blockchain
	state   *wallet.StateClient
	storage storage
	ttl     time.Duration

	// the last issued message, used to chain seqno while it is not yet on chain
	mu         sync.Mutex
	lastID     core.MessageID
	lastSeqno  *uint32
	lastExpiry time.Time
}

func New(w *wallet.Wallet, key ed25519.PrivateKey, chain blockchain, storage storage, ttl time.Duration) (*Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: invalid private key", wallet.ErrInvalidArgument)
	}
	if !key.Public().(ed25519.PublicKey).Equal(w.PublicKey()) {
		return nil, fmt.Errorf("%w: private key does not match the wallet", wallet.ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = wallet.DefaultValidity
	}
	return &Signer{
		wallet:  w,
		key:     key,
		chain:   chain,
		state:   wallet.NewStateClient(w, chain),
		storage: storage,
		ttl:     ttl,
	}, nil
}

func (s *Signer) Wallet() *wallet.Wallet {
	return s.wallet
}

type Info struct {
	Address  ton.AccountID
	WalletID int32
	Status   tlb.AccountStatus
	// State is set only for an active account.
	State *wallet.Status
}

// Info reads the wallet state. A not deployed wallet has no state.
func (s *Signer) Info(ctx context.Context) (Info, error) {
	address, err := s.wallet.Address()
	if err != nil {
		return Info{}, err
	}
	res := Info{Address: address, WalletID: s.wallet.Identity().SerializedID()}
	res.Status, err = s.chain.AccountStatus(ctx, address)
	if err != nil {
		return Info{}, fmt.Errorf("get account status: %w", err)
	}
	if res.Status != tlb.AccountActive {
		return res, nil
	}
	state, err := s.state.Status(ctx)
	if err != nil {
		return Info{}, err
	}
	res.State = &state
	return res, nil
}

// Queue builds a signed message for the actions and stores it for dispatching.
func (s *Signer) Queue(ctx context.Context, actions []wallet.Action) (core.OutboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seqno, err := s.nextSeqno(ctx)
	if err != nil {
		return core.OutboundMessage{}, err
	}
	m, err := s.build(seqno, actions)
	if err != nil {
		return core.OutboundMessage{}, err
	}
	if err := s.storage.SaveMessage(ctx, m); err != nil {
		return core.OutboundMessage{}, fmt.Errorf("save message: %w", err)
	}
	s.lastID = m.ID
	s.lastSeqno = &m.Seqno
	s.lastExpiry = m.ValidUntil
	slog.Info("message queued", "id", m.ID.String(), "seqno", m.Seqno, "deploy", m.Deploy)
	return m, nil
}

// Estimate builds the message with a dummy signature. Nothing is stored.
func (s *Signer) Estimate(ctx context.Context, actions []wallet.Action) (core.OutboundMessage, error) {
	s.mu.Lock()
	seqno, err := s.nextSeqno(ctx)
	s.mu.Unlock()
	if err != nil {
		return core.OutboundMessage{}, err
	}
	return s.build(seqno, actions, wallet.WithDummySignature())
}

func (s *Signer) build(seqno uint32, actions []wallet.Action, opts ...wallet.AssembleOption) (core.OutboundMessage, error) {
	now := time.Now()
	msg, err := s.wallet.Identity().BuildSigningMessage(wallet.SigningRequest{
		Seqno:      seqno,
		ValidUntil: now.Add(s.ttl),
		Actions:    actions,
		Auth:       wallet.AuthExternal,
	})
	if err != nil {
		return core.OutboundMessage{}, err
	}
	ext, err := s.wallet.Assemble(msg, s.key, int64(seqno), opts...)
	if err != nil {
		return core.OutboundMessage{}, err
	}
	payload, err := ext.ToBoc()
	if err != nil {
		return core.OutboundMessage{}, err
	}
	hash, err := ext.Hash()
	if err != nil {
		return core.OutboundMessage{}, err
	}
	return core.OutboundMessage{
		ID:         core.NewMessageID(),
		Wallet:     ext.Destination,
		Seqno:      seqno,
		ValidUntil: time.Unix(int64(msg.ValidUntil), 0),
		Deploy:     ext.StateInit != nil,
		Hash:       hash,
		Boc:        payload,
		Status:     core.QueuedMessageStatus,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// nextSeqno is 0 for a wallet that is not deployed yet. The last issued message moves
// it forward while it can still land: it is valid and journaled as queued or sent.
func (s *Signer) nextSeqno(ctx context.Context) (uint32, error) {
	address, err := s.wallet.Address()
	if err != nil {
		return 0, err
	}
	status, err := s.chain.AccountStatus(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("get account status: %w", err)
	}
	var seqno uint32
	if status == tlb.AccountActive {
		seqno, err = s.state.GetSeqno(ctx)
		if err != nil {
			return 0, err
		}
	}
	if s.lastSeqno == nil || *s.lastSeqno < seqno || !time.Now().Before(s.lastExpiry) {
		return seqno, nil
	}
	last, err := s.storage.GetMessage(ctx, s.lastID)
	if err != nil {
		return 0, fmt.Errorf("get last message: %w", err)
	}
	switch last.Status {
	case core.QueuedMessageStatus, core.SentMessageStatus:
		return *s.lastSeqno + 1, nil
	}
	s.lastSeqno = nil
	return seqno, nil
}
