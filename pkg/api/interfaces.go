package api

import (
	"context"
	"github.com/txsociety/w5signer/pkg/core"
	"github.com/txsociety/w5signer/pkg/signer"
	"github.com/txsociety/w5signer/pkg/wallet"
)

type storage interface {
	GetMessage(ctx context.Context, id core.MessageID) (core.OutboundMessage, error)
	GetMessages(ctx context.Context, after core.MessageID, limit int64) ([]core.OutboundMessage, error)
}

type messageSigner interface {
	Info(ctx context.Context) (signer.Info, error)
	Queue(ctx context.Context, actions []wallet.Action) (core.OutboundMessage, error)
	Estimate(ctx context.Context, actions []wallet.Action) (core.OutboundMessage, error)
}
