package core

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/tonkeeper/tongo/ton"
	"time"
)

type MessageStatus string

const (
	QueuedMessageStatus  MessageStatus = "queued"
	SentMessageStatus    MessageStatus = "sent"
	ExpiredMessageStatus MessageStatus = "expired"
	FailedMessageStatus  MessageStatus = "failed"
)

// Final reports whether the dispatcher is done with the message.
func (s MessageStatus) Final() bool {
	return s != QueuedMessageStatus
}

// OutboundMessage is a journal record of one assembled external message.
type OutboundMessage struct {
	ID         MessageID
	Wallet     ton.AccountID
	Seqno      uint32
	ValidUntil time.Time
	Deploy     bool
	Hash       ton.Bits256
	Boc        []byte
	Status     MessageStatus
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	SentAt     *time.Time
}

// Expired reports whether the wallet will reject the message at the given time.
func (m OutboundMessage) Expired(now time.Time) bool {
	return !m.Deploy && now.After(m.ValidUntil)
}

type OutboundMessagePrintable struct {
	ID         string `json:"id"`
	Wallet     string `json:"wallet"`
	Seqno      uint32 `json:"seqno"`
	ValidUntil int64  `json:"valid_until"`
	Deploy     bool   `json:"deploy"`
	Hash       string `json:"hash"`
	Boc        []byte `json:"boc"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	SentAt     *int64 `json:"sent_at,omitempty"`
}

func ConvertMessageToPrintable(m OutboundMessage, testnet bool) OutboundMessagePrintable {
	res := OutboundMessagePrintable{
		ID:         m.ID.String(),
		Wallet:     m.Wallet.ToHuman(false, testnet),
		Seqno:      m.Seqno,
		ValidUntil: m.ValidUntil.Unix(),
		Deploy:     m.Deploy,
		Hash:       m.Hash.Hex(),
		Boc:        m.Boc,
		Status:     string(m.Status),
		Attempts:   m.Attempts,
		LastError:  m.LastError,
		CreatedAt:  m.CreatedAt.Unix(),
		UpdatedAt:  m.UpdatedAt.Unix(),
	}
	if m.SentAt != nil {
		sentAt := m.SentAt.Unix()
		res.SentAt = &sentAt
	}
	return res
}

type MessageID = uuid.UUID

func ParseMessageID(id string) (MessageID, error) {
	if len(id) == 0 {
		return MessageID{}, errors.New("invalid id length")
	}
	res, err := uuid.Parse(id)
	if err != nil {
		return MessageID{}, err
	}
	if res.Version() != 7 {
		return MessageID{}, fmt.Errorf("invalid message id")
	}
	return res, nil
}

func NewMessageID() MessageID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}
