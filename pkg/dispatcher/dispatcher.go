package dispatcher

import (
	"context"
	"fmt"
	"github.com/avast/retry-go/v4"
	"github.com/txsociety/w5signer/pkg/core"
	"log/slog"
	"sync"
	"time"
)

const batchSize = 10

type Options struct {
	Interval time.Duration
	// Attempts is the number of submissions of one message before it is marked failed.
	Attempts uint
	Delay    time.Duration
	Testnet  bool
}

// Dispatcher submits queued messages in journal order.
type Dispatcher struct {
	sender   sender
	storage  storage
	notifier notifier
	opts     Options
}

// New creates a dispatcher. notifier may be nil.
func New(sender sender, storage storage, notifier notifier, opts Options) *Dispatcher {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	return &Dispatcher{
		sender:   sender,
		storage:  storage,
		notifier: notifier,
		opts:     opts,
	}
}

func (d *Dispatcher) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go d.run(ctx, wg)
}

func (d *Dispatcher) run(ctx context.Context, wg *sync.WaitGroup) {
	slog.Info("dispatcher started")
	defer wg.Done()
	for {
		n, err := d.processBatch(ctx)
		if err != nil {
			slog.Error("dispatch messages", "error", err.Error())
		}
		wait := d.opts.Interval
		if err == nil && n == batchSize {
			wait = 0
		}
		select {
		case <-ctx.Done():
			slog.Info("dispatcher stopped")
			return
		case <-time.After(wait):
		}
	}
}

// processBatch handles one page of queued messages and returns its size.
func (d *Dispatcher) processBatch(ctx context.Context) (int, error) {
	messages, err := d.storage.GetQueuedMessages(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("get queued messages: %w", err)
	}
	for _, m := range messages {
		if err := d.process(ctx, m); err != nil {
			return 0, err
		}
	}
	return len(messages), nil
}

func (d *Dispatcher) process(ctx context.Context, m core.OutboundMessage) error {
	status := core.SentMessageStatus
	var attemptErr error
	if m.Expired(time.Now()) {
		status = core.ExpiredMessageStatus
	} else {
		attemptErr = retry.Do(func() error {
			return d.sender.SendMessage(ctx, m.Boc)
		},
			retry.Context(ctx),
			retry.Attempts(d.opts.Attempts),
			retry.Delay(d.opts.Delay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(attempt uint, err error) {
				slog.Warn("message submission", "id", m.ID.String(), "attempt", attempt+1, "error", err.Error())
			}),
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attemptErr != nil {
			status = core.FailedMessageStatus
		}
	}
	if err := d.storage.UpdateMessageStatus(ctx, m.ID, status, attemptErr); err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	slog.Info("message processed", "id", m.ID.String(), "seqno", m.Seqno, "status", status)
	d.notify(ctx, m.ID)
	return nil
}

func (d *Dispatcher) notify(ctx context.Context, id core.MessageID) {
	if d.notifier == nil {
		return
	}
	m, err := d.storage.GetMessage(ctx, id)
	if err != nil {
		slog.Error("get message for notification", "id", id.String(), "error", err.Error())
		return
	}
	if err := d.notifier.Send(ctx, core.ConvertMessageToPrintable(m, d.opts.Testnet)); err != nil {
		slog.Error("notify failed", "id", id.String(), "error", err.Error())
	}
}
