package blockchain

import (
	"context"
	"errors"
	"fmt"
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
	tongoCode "github.com/tonkeeper/tongo/code"
	"github.com/tonkeeper/tongo/config"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/tvm"
	"github.com/tonkeeper/tongo/txemulator"
	"golang.org/x/time/rate"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrNotInitialized = errors.New("blockchain client not initialized")
	ErrStaleBlock     = errors.New("masterchain block is older than the trusted one")
)

type Options struct {
	LiteServers []config.LiteServer
	Testnet     bool
	// RPS limits requests to liteservers. Zero disables the limit.
	RPS float64
	// Emulate runs get methods in a local TVM instead of asking a liteserver.
	Emulate bool
}

type Client struct {
	connection *liteapi.Client
	limiter    *rate.Limiter
	emulate    bool

	lastMasterchainBlockLock sync.RWMutex
	lastMasterchainBlock     *ton.BlockIDExt
}

type storage interface {
	SetLastTrustedBlock(ctx context.Context, block ton.BlockIDExt) error
	GetLastTrustedBlock(ctx context.Context) (*ton.BlockIDExt, error)
}

func New(opts Options) (*Client, error) {
	options := make([]liteapi.Option, 0)
	switch {
	case len(opts.LiteServers) > 0:
		options = append(options, liteapi.WithLiteServers(opts.LiteServers))
		options = append(options, liteapi.WithMaxConnectionsNumber(len(opts.LiteServers)))
	case opts.Testnet:
		options = append(options, liteapi.Testnet())
		slog.Warn("liteservers are not set, retrieving liteservers from testnet global config")
	default:
		options = append(options, liteapi.Mainnet())
		slog.Warn("liteservers are not set, retrieving liteservers from global config")
	}
	api, err := liteapi.NewClient(options...)
	if err != nil {
		return nil, err
	}
	return &Client{
		connection: api,
		limiter:    newLimiter(opts.RPS),
		emulate:    opts.Emulate,
	}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

func (c *Client) RunBlockWatcher(ctx context.Context, storage storage, wg *sync.WaitGroup) {
	slog.Info("initializing client. Can require few minutes for checking proofs")
	wait := make(chan struct{})
	wg.Add(1)
	go c.runBlockWatcher(ctx, storage, wg, wait)
	select {
	case <-wait:
		slog.Info("client initialized")
	case <-ctx.Done():
	}
}

func (c *Client) runBlockWatcher(ctx context.Context, storage storage, wg *sync.WaitGroup, wait chan struct{}) {
	slog.Info("block watcher started")
	defer wg.Done()

	initialized := false
	for {
		if !initialized {
			err := c.updateMasterchainBlock(ctx, storage, 10*time.Minute)
			if err != nil {
				slog.Error("can not get proofed block", "err", err.Error())
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
				}
				continue
			}
			initialized = true
			close(wait)
		}
		select {
		case <-ctx.Done():
			slog.Info("block watcher stopped")
			return
		case <-time.After(5 * time.Second):
			err := c.updateMasterchainBlock(ctx, storage, 10*time.Minute)
			if err != nil {
				slog.Error("can not update block", "err", err.Error())
			}
		}
	}
}

func (c *Client) updateMasterchainBlock(ctx context.Context, storage storage, timeout time.Duration) error {
	ctx1, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.wait(ctx1); err != nil {
		return err
	}
	info, err := c.connection.GetMasterchainInfo(ctx1)
	if err != nil {
		return fmt.Errorf("can not get masterchain info: %w", err)
	}
	block := info.Last.ToBlockIdExt()
	trusted, err := storage.GetLastTrustedBlock(ctx1)
	if err != nil {
		return fmt.Errorf("can not get last trusted block: %w", err)
	}
	if trusted != nil && block.Seqno < trusted.Seqno {
		return fmt.Errorf("%w: liteserver block %d, trusted %d", ErrStaleBlock, block.Seqno, trusted.Seqno)
	}
	c.lastMasterchainBlockLock.Lock()
	c.lastMasterchainBlock = &block
	c.lastMasterchainBlockLock.Unlock()
	err = storage.SetLastTrustedBlock(ctx1, block)
	if err != nil {
		return fmt.Errorf("can not save last block: %w", err)
	}
	return nil
}

func (c *Client) getLastMasterchainBlock() (ton.BlockIDExt, error) {
	c.lastMasterchainBlockLock.RLock()
	defer c.lastMasterchainBlockLock.RUnlock()
	if c.lastMasterchainBlock == nil {
		return ton.BlockIDExt{}, ErrNotInitialized
	}
	return *c.lastMasterchainBlock, nil
}

func (c *Client) GetAccountState(ctx context.Context, accountID ton.AccountID) (tlb.ShardAccount, uint32, error) {
	block, err := c.getLastMasterchainBlock()
	if err != nil {
		return tlb.ShardAccount{}, 0, err
	}
	if err := c.wait(ctx); err != nil {
		return tlb.ShardAccount{}, 0, err
	}
	shardAcc, err := c.connection.WithBlock(block).GetAccountState(ctx, accountID)
	if err != nil {
		return tlb.ShardAccount{}, 0, err
	}
	return shardAcc, block.Seqno, nil
}

// AccountStatus is the account status in the last trusted masterchain block.
func (c *Client) AccountStatus(ctx context.Context, accountID ton.AccountID) (tlb.AccountStatus, error) {
	state, _, err := c.GetAccountState(ctx, accountID)
	if err != nil {
		return "", err
	}
	return state.Account.Status(), nil
}

func (c *Client) GetLibraries(ctx context.Context, libraryList []ton.Bits256) (map[ton.Bits256]*boc.Cell, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.connection.GetLibraries(ctx, libraryList)
}

// SendMessage submits a serialized external message.
func (c *Client) SendMessage(ctx context.Context, payload []byte) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	code, err := c.connection.SendMessage(ctx, payload)
	if err != nil {
		return err
	}
	if code != 1 {
		return fmt.Errorf("liteserver rejected message with status %d", code)
	}
	return nil
}

func (c *Client) RunSmcMethodByID(ctx context.Context, accountID ton.AccountID, methodID int, params tlb.VmStack) (uint32, tlb.VmStack, error) {
	if c.emulate {
		return c.emulateSmcMethod(ctx, accountID, methodID, params)
	}
	block, err := c.getLastMasterchainBlock()
	if err != nil {
		return 0, nil, err
	}
	if err := c.wait(ctx); err != nil {
		return 0, nil, err
	}
	return c.connection.WithBlock(block).RunSmcMethodByID(ctx, accountID, methodID, params)
}

func (c *Client) emulateSmcMethod(ctx context.Context, accountID ton.AccountID, methodID int, params tlb.VmStack) (uint32, tlb.VmStack, error) {
	state, _, err := c.GetAccountState(ctx, accountID)
	if err != nil {
		return 0, nil, err
	}
	if state.Account.Status() != tlb.AccountActive {
		return 0, nil, errors.New("account is not active")
	}
	var (
		code, data *boc.Cell
	)
	if !state.Account.Account.Storage.State.AccountActive.StateInit.Code.Exists {
		return 0, nil, errors.New("account code is empty")
	}
	if !state.Account.Account.Storage.State.AccountActive.StateInit.Data.Exists {
		return 0, nil, errors.New("account data is empty")
	}
	code = &state.Account.Account.Storage.State.AccountActive.StateInit.Code.Value.Value
	data = &state.Account.Account.Storage.State.AccountActive.StateInit.Data.Value.Value

	cfg := boc.NewCell()
	if err := c.wait(ctx); err != nil {
		return 0, nil, err
	}
	configParams, err := c.connection.GetConfigAll(ctx, 0)
	if err != nil {
		return 0, nil, err
	}
	if err := tlb.Marshal(cfg, configParams.Config); err != nil {
		return 0, nil, err
	}

	libs := map[tongo.Bits256]*boc.Cell{}
	accountLibs := state.Account.Account.Storage.State.AccountActive.StateInit.Library
	for _, item := range accountLibs.Items() {
		libs[tongo.Bits256(item.Key)] = &item.Value.Root
	}

	// W5 code is published as a library cell
	libHashes, err := tongoCode.FindLibraries(code)
	if err != nil {
		return 0, nil, err
	}
	if len(libHashes) > 0 {
		publicLibs, err := c.GetLibraries(ctx, libHashes)
		if err != nil {
			return 0, nil, err
		}
		for hash, lib := range publicLibs {
			libs[hash] = lib
		}
	}
	base64libs, err := tongoCode.LibrariesToBase64(libs)
	if err != nil {
		return 0, nil, err
	}

	emulator, err := tvm.NewEmulator(code, data, cfg,
		tvm.WithVerbosityLevel(txemulator.LogTruncated),
		tvm.WithLibrariesBase64(base64libs))
	if err != nil {
		return 0, tlb.VmStack{}, err
	}
	err = emulator.SetGasLimit(10_000_000)
	if err != nil {
		return 0, tlb.VmStack{}, err
	}
	return emulator.RunSmcMethodByID(ctx, accountID, methodID, params)
}
