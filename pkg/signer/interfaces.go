package signer

import (
	"context"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/w5signer/pkg/core"
	"github.com/txsociety/w5signer/pkg/wallet"
)

type blockchain interface {
	wallet.Executor
	AccountStatus(ctx context.Context, accountID ton.AccountID) (tlb.AccountStatus, error)
}

type storage interface {
	SaveMessage(ctx context.Context, m core.OutboundMessage) error
	GetMessage(ctx context.Context, id core.MessageID) (core.OutboundMessage, error)
}
