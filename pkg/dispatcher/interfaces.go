package dispatcher

import (
	"context"
	"github.com/txsociety/w5signer/pkg/core"
)

type notifier interface {
	Send(ctx context.Context, message core.OutboundMessagePrintable) error
}

type sender interface {
	SendMessage(ctx context.Context, payload []byte) error
}

type storage interface {
	GetQueuedMessages(ctx context.Context, limit int64) ([]core.OutboundMessage, error)
	UpdateMessageStatus(ctx context.Context, id core.MessageID, status core.MessageStatus, attemptErr error) error
	GetMessage(ctx context.Context, id core.MessageID) (core.OutboundMessage, error)
}
