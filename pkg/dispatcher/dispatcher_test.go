package dispatcher

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txsociety/w5signer/pkg/core"
	"sync"
	"testing"
	"time"
)

type mockSender struct {
	mu    sync.Mutex
	sent  [][]byte
	fails int
}

func (m *mockSender) SendMessage(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("liteserver timeout")
	}
	m.sent = append(m.sent, payload)
	return nil
}

type mockStorage struct {
	mu       sync.Mutex
	messages map[core.MessageID]*core.OutboundMessage
	order    []core.MessageID
}

func newMockStorage(messages ...core.OutboundMessage) *mockStorage {
	s := &mockStorage{messages: map[core.MessageID]*core.OutboundMessage{}}
	for i := range messages {
		m := messages[i]
		s.messages[m.ID] = &m
		s.order = append(s.order, m.ID)
	}
	return s
}

func (s *mockStorage) GetQueuedMessages(ctx context.Context, limit int64) ([]core.OutboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []core.OutboundMessage
	for _, id := range s.order {
		if m := s.messages[id]; m.Status == core.QueuedMessageStatus && int64(len(res)) < limit {
			res = append(res, *m)
		}
	}
	return res, nil
}

func (s *mockStorage) UpdateMessageStatus(ctx context.Context, id core.MessageID, status core.MessageStatus, attemptErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return core.ErrNotFound
	}
	m.Status = status
	m.Attempts++
	if attemptErr != nil {
		m.LastError = attemptErr.Error()
	}
	return nil
}

func (s *mockStorage) GetMessage(ctx context.Context, id core.MessageID) (core.OutboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return core.OutboundMessage{}, core.ErrNotFound
	}
	return *m, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	received []core.OutboundMessagePrintable
}

func (n *mockNotifier) Send(ctx context.Context, message core.OutboundMessagePrintable) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, message)
	return nil
}

func queued(boc string, validUntil time.Time, deploy bool) core.OutboundMessage {
	return core.OutboundMessage{
		ID:         core.NewMessageID(),
		ValidUntil: validUntil,
		Deploy:     deploy,
		Boc:        []byte(boc),
		Status:     core.QueuedMessageStatus,
	}
}

func TestProcessBatch(t *testing.T) {
	now := time.Now()
	fresh := queued("fresh", now.Add(time.Minute), false)
	stale := queued("stale", now.Add(-time.Minute), false)
	deploy := queued("deploy", now.Add(-time.Minute), true)
	storage := newMockStorage(fresh, stale, deploy)
	sender := &mockSender{}
	notifier := &mockNotifier{}
	d := New(sender, storage, notifier, Options{Delay: time.Millisecond})

	n, err := d.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, [][]byte{[]byte("fresh"), []byte("deploy")}, sender.sent)
	assert.Equal(t, core.SentMessageStatus, storage.messages[fresh.ID].Status)
	assert.Equal(t, core.ExpiredMessageStatus, storage.messages[stale.ID].Status)
	assert.Equal(t, core.SentMessageStatus, storage.messages[deploy.ID].Status)
	require.Len(t, notifier.received, 3)
	assert.Equal(t, "expired", notifier.received[1].Status)

	n, err = d.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessRetriesAndFails(t *testing.T) {
	m := queued("retry", time.Now().Add(time.Minute), false)
	storage := newMockStorage(m)
	sender := &mockSender{fails: 2}
	d := New(sender, storage, nil, Options{Attempts: 3, Delay: time.Millisecond})
	require.NoError(t, d.process(context.Background(), m))
	assert.Equal(t, core.SentMessageStatus, storage.messages[m.ID].Status)

	m = queued("broken", time.Now().Add(time.Minute), false)
	storage = newMockStorage(m)
	sender = &mockSender{fails: 10}
	d = New(sender, storage, nil, Options{Attempts: 2, Delay: time.Millisecond})
	require.NoError(t, d.process(context.Background(), m))
	assert.Equal(t, core.FailedMessageStatus, storage.messages[m.ID].Status)
	assert.Equal(t, "liteserver timeout", storage.messages[m.ID].LastError)
	assert.Equal(t, 8, sender.fails)
}

func TestRunStops(t *testing.T) {
	storage := newMockStorage(queued("a", time.Now().Add(time.Minute), false))
	sender := &mockSender{}
	d := New(sender, storage, nil, Options{Interval: 5 * time.Millisecond, Delay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	wg := new(sync.WaitGroup)
	d.Run(ctx, wg)
	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.sent) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()
}
