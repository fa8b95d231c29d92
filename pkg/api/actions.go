package api

import (
	"errors"
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/w5signer/pkg/wallet"
	"strconv"
)

const (
	transferAction         = "transfer"
	setCodeAction          = "set_code"
	addExtensionAction     = "add_extension"
	removeExtensionAction  = "remove_extension"
	setSignatureAuthAction = "set_signature_auth"
)

type NewMessage struct {
	Actions []NewAction `json:"actions"`
}

type NewAction struct {
	Type string `json:"type"`
	// transfer
	Destination string `json:"destination,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Bounce      bool   `json:"bounce,omitempty"`
	Comment     string `json:"comment,omitempty"`
	// base64 BOC of the body, exclusive with comment
	Payload string `json:"payload,omitempty"`
	Mode    *uint8 `json:"mode,omitempty"`
	// set_code, base64 BOC
	Code string `json:"code,omitempty"`
	// add_extension and remove_extension
	Address string `json:"address,omitempty"`
	// set_signature_auth
	Allowed bool `json:"allowed,omitempty"`
}

func convertNewMessage(m NewMessage) ([]wallet.Action, error) {
	if len(m.Actions) == 0 {
		return nil, errors.New("no actions")
	}
	res := make([]wallet.Action, 0, len(m.Actions))
	for i, a := range m.Actions {
		action, err := convertAction(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		res = append(res, action)
	}
	return res, nil
}

func convertAction(a NewAction) (wallet.Action, error) {
	switch a.Type {
	case transferAction:
		return convertTransfer(a)
	case setCodeAction:
		code, err := parseCell(a.Code)
		if err != nil {
			return nil, fmt.Errorf("invalid code: %w", err)
		}
		return wallet.SetCode{NewCode: code}, nil
	case addExtensionAction, removeExtensionAction:
		addr, err := ton.ParseAccountID(a.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
		if a.Type == addExtensionAction {
			return wallet.AddExtension{Address: addr}, nil
		}
		return wallet.RemoveExtension{Address: addr}, nil
	case setSignatureAuthAction:
		return wallet.SetSignatureAuthAllowed{Allowed: a.Allowed}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", a.Type)
}

func convertTransfer(a NewAction) (wallet.Action, error) {
	dest, err := ton.ParseAccountID(a.Destination)
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}
	amount, err := strconv.ParseUint(a.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	t := wallet.Transfer{
		Destination: dest,
		Amount:      tlb.Grams(amount),
		Bounce:      a.Bounce,
		Mode:        wallet.DefaultSendMode,
	}
	if a.Mode != nil {
		t.Mode = *a.Mode
	}
	switch {
	case len(a.Comment) > 0 && len(a.Payload) > 0:
		return nil, errors.New("comment and payload are exclusive")
	case len(a.Comment) > 0:
		t.Body, err = wallet.TextComment(a.Comment)
	case len(a.Payload) > 0:
		t.Body, err = parseCell(a.Payload)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	return t.Action()
}

func parseCell(s string) (*boc.Cell, error) {
	cells, err := boc.DeserializeBocBase64(s)
	if err != nil {
		return nil, err
	}
	if len(cells) != 1 {
		return nil, errors.New("exactly one root cell expected")
	}
	return cells[0], nil
}
