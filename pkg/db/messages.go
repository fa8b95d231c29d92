package db

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/w5signer/pkg/core"
	"time"
)

const messageColumns = `id, wallet, seqno, valid_until, deploy, hash, boc, status, attempts, last_error, created_at, updated_at, sent_at`

func (c *Connection) SaveMessage(ctx context.Context, m core.OutboundMessage) error {
	_, err := c.postgres.Exec(ctx, `
		INSERT INTO wallet.messages 
		(`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID,
		m.Wallet.ToRaw(),
		int64(m.Seqno),
		m.ValidUntil,
		m.Deploy,
		m.Hash[:],
		m.Boc,
		m.Status,
		m.Attempts,
		m.LastError,
		m.CreatedAt,
		m.UpdatedAt,
		m.SentAt,
	)
	return err
}

func (c *Connection) GetMessage(ctx context.Context, id core.MessageID) (core.OutboundMessage, error) {
	row := c.postgres.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM wallet.messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return core.OutboundMessage{}, core.ErrNotFound
	} else if err != nil {
		return core.OutboundMessage{}, err
	}
	return m, nil
}

func (c *Connection) GetMessages(ctx context.Context, after core.MessageID, limit int64) ([]core.OutboundMessage, error) {
	rows, err := c.postgres.Query(ctx, `
		SELECT `+messageColumns+`
		FROM wallet.messages
		WHERE id > $1
		ORDER BY id
		LIMIT $2`,
		after, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// GetQueuedMessages returns messages waiting for submission, oldest first.
func (c *Connection) GetQueuedMessages(ctx context.Context, limit int64) ([]core.OutboundMessage, error) {
	rows, err := c.postgres.Query(ctx, `
		SELECT `+messageColumns+`
		FROM wallet.messages
		WHERE status = $1
		ORDER BY id
		LIMIT $2`,
		core.QueuedMessageStatus, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// UpdateMessageStatus records a submission attempt. A non-nil attemptErr is stored as the last error.
func (c *Connection) UpdateMessageStatus(ctx context.Context, id core.MessageID, status core.MessageStatus, attemptErr error) error {
	now := time.Now()
	var (
		lastError string
		sentAt    *time.Time
	)
	if attemptErr != nil {
		lastError = attemptErr.Error()
	}
	if status == core.SentMessageStatus {
		sentAt = &now
	}
	tag, err := c.postgres.Exec(ctx, `
		UPDATE wallet.messages
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = $4, sent_at = COALESCE($5, sent_at)
		WHERE id = $1`,
		id, status, lastError, now, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func collectMessages(rows pgx.Rows) ([]core.OutboundMessage, error) {
	defer rows.Close()
	var res []core.OutboundMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func scanMessage(row pgx.Row) (core.OutboundMessage, error) {
	var (
		m      core.OutboundMessage
		wallet string
		seqno  int64
		hash   []byte
	)
	err := row.Scan(
		&m.ID,
		&wallet,
		&seqno,
		&m.ValidUntil,
		&m.Deploy,
		&hash,
		&m.Boc,
		&m.Status,
		&m.Attempts,
		&m.LastError,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.SentAt,
	)
	if err != nil {
		return core.OutboundMessage{}, err
	}
	m.Wallet, err = ton.ParseAccountID(wallet)
	if err != nil {
		return core.OutboundMessage{}, err
	}
	m.Seqno = uint32(seqno)
	copy(m.Hash[:], hash)
	return m, nil
}
