package wallet

import (
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	tongowallet "github.com/tonkeeper/tongo/wallet"
)

// Send modes
const (
	SendModePayFeesSeparately uint8 = 1
	SendModeIgnoreErrors      uint8 = 2
	SendModeCarryRemaining    uint8 = 64
	SendModeCarryAll          uint8 = 128
	SendModeDestroyIfZero     uint8 = 32
)

// DefaultSendMode pays fees separately and ignores action phase errors.
const DefaultSendMode = SendModePayFeesSeparately | SendModeIgnoreErrors

// Transfer describes a plain value transfer carried by a SendMessage action.
type Transfer struct {
	Destination ton.AccountID
	Amount      tlb.Grams
	Bounce      bool
	Body        *boc.Cell
	// Code and Data deploy the destination when both are set.
	Code *boc.Cell
	Data *boc.Cell
	Mode uint8
}

// Action wraps the transfer message into a SendMessage action.
func (t Transfer) Action() (SendMessage, error) {
	msg, err := t.MessageCell()
	if err != nil {
		return SendMessage{}, err
	}
	return SendMessage{Mode: t.Mode, Message: msg}, nil
}

// MessageCell encodes the relaxed internal message. The contract fills source, fees and timestamps.
func (t Transfer) MessageCell() (*boc.Cell, error) {
	if (t.Code == nil) != (t.Data == nil) {
		return nil, fmt.Errorf("%w: code and data of the destination state init go together", ErrInvalidArgument)
	}
	msg, _, err := tongowallet.Message{
		Amount:  t.Amount,
		Address: t.Destination,
		Body:    t.Body,
		Code:    t.Code,
		Data:    t.Data,
		Bounce:  t.Bounce,
		Mode:    t.Mode,
	}.ToInternal()
	if err != nil {
		return nil, err
	}
	c := boc.NewCell()
	if err := tlb.Marshal(c, msg); err != nil {
		return nil, fmt.Errorf("internal message: %w", err)
	}
	return c, nil
}

// TextComment builds a text comment body, continued in refs when it does not fit one cell.
func TextComment(text string) (*boc.Cell, error) {
	c := boc.NewCell()
	if err := c.WriteUint(0, 32); err != nil {
		return nil, err
	}
	comment := tlb.Text(text)
	if err := tlb.Marshal(c, &comment); err != nil {
		return nil, err
	}
	return c, nil
}
