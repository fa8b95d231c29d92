package db

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/tonkeeper/tongo/ton"
)

const masterchainShard = 0x8000000000000000

// GetLastTrustedBlock returns nil if no block was saved yet.
func (c *Connection) GetLastTrustedBlock(ctx context.Context) (*ton.BlockIDExt, error) {
	var rootHash, fileHash []byte
	block := ton.BlockIDExt{BlockID: ton.BlockID{Workchain: -1, Shard: masterchainShard}}
	err := c.postgres.QueryRow(ctx, `
		SELECT seqno, root_hash, file_hash
		FROM blockchain.trusted_mc_block
		WHERE id = 1`).Scan(&block.Seqno, &rootHash, &fileHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if len(rootHash) != 32 || len(fileHash) != 32 {
		return nil, errors.New("invalid trusted block hashes")
	}
	copy(block.RootHash[:], rootHash)
	copy(block.FileHash[:], fileHash)
	return &block, nil
}

// SetLastTrustedBlock never moves the trusted block backwards.
func (c *Connection) SetLastTrustedBlock(ctx context.Context, block ton.BlockIDExt) error {
	if block.Workchain != -1 || block.Shard != masterchainShard {
		return errors.New("only masterchain block can be saved")
	}
	_, err := c.postgres.Exec(ctx, `
		INSERT INTO blockchain.trusted_mc_block (id, seqno, root_hash, file_hash, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET seqno = EXCLUDED.seqno, root_hash = EXCLUDED.root_hash, file_hash = EXCLUDED.file_hash, updated_at = now()
		WHERE blockchain.trusted_mc_block.seqno <= EXCLUDED.seqno`,
		block.Seqno, block.RootHash[:], block.FileHash[:])
	return err
}
