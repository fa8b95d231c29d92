package wallet

import (
	"context"
	"fmt"
	"github.com/tonkeeper/tongo/abi"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/sync/errgroup"
	"math/big"
)

// Get method ids, crc16(name) | 0x10000.
const (
	MethodSeqno              = 85143
	MethodGetSubwalletID     = 81467
	MethodGetPublicKey       = 78748
	MethodIsSignatureAllowed = 88459
	MethodGetExtensions      = 117729
)

var methodNames = map[int]string{
	MethodSeqno:              "seqno",
	MethodGetSubwalletID:     "get_subwallet_id",
	MethodGetPublicKey:       "get_public_key",
	MethodIsSignatureAllowed: "is_signature_allowed",
	MethodGetExtensions:      "get_extensions",
}

// exit code of a call to a missing get method
const exitCodeMethodNotFound = 11

// Executor runs get methods of a deployed contract.
type Executor interface {
	RunSmcMethodByID(ctx context.Context, accountID ton.AccountID, methodID int, params tlb.VmStack) (uint32, tlb.VmStack, error)
}

// StateClient reads live state of a deployed wallet. It keeps no cache.
type StateClient struct {
	wallet   *Wallet
	executor Executor
}

func NewStateClient(w *Wallet, executor Executor) *StateClient {
	return &StateClient{wallet: w, executor: executor}
}

func (c *StateClient) GetWalletID(ctx context.Context) (int32, error) {
	res, err := c.runAbi(ctx, MethodGetSubwalletID, abi.GetSubwalletId)
	if err != nil {
		return 0, err
	}
	r, ok := res.(abi.GetSubwalletIdResult)
	if !ok {
		return 0, unexpectedResult(MethodGetSubwalletID, res)
	}
	return int32(r.SubwalletId), nil
}

func (c *StateClient) GetPublicKey(ctx context.Context) (ed25519.PublicKey, error) {
	res, err := c.runAbi(ctx, MethodGetPublicKey, abi.GetPublicKey)
	if err != nil {
		return nil, err
	}
	r, ok := res.(abi.GetPublicKeyResult)
	if !ok {
		return nil, unexpectedResult(MethodGetPublicKey, res)
	}
	v := big.Int(r.PublicKey)
	if v.Sign() < 0 || v.BitLen() > 256 {
		return nil, &QueryError{Method: methodNames[MethodGetPublicKey], Err: fmt.Errorf("invalid public key %v", &v)}
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	v.FillBytes(key)
	return key, nil
}

func (c *StateClient) GetSeqno(ctx context.Context) (uint32, error) {
	res, err := c.runAbi(ctx, MethodSeqno, abi.Seqno)
	if err != nil {
		return 0, err
	}
	r, ok := res.(abi.SeqnoResult)
	if !ok {
		return 0, unexpectedResult(MethodSeqno, res)
	}
	return r.State, nil
}

// IsSignatureAuthAllowed reports whether the wallet still accepts owner signatures.
func (c *StateClient) IsSignatureAuthAllowed(ctx context.Context) (bool, error) {
	v, err := c.runInt(ctx, MethodIsSignatureAllowed)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// GetIsSignatureAuthAllowed returns 1 or 0, and -1 if the state can not be read,
// e.g. the contract revision has no such method.
func (c *StateClient) GetIsSignatureAuthAllowed(ctx context.Context) int {
	allowed, err := c.IsSignatureAuthAllowed(ctx)
	if err != nil {
		return -1
	}
	if allowed {
		return 1
	}
	return 0
}

// GetExtensions returns the raw extensions dictionary or nil if there are none.
func (c *StateClient) GetExtensions(ctx context.Context) (*boc.Cell, error) {
	stack, err := c.run(ctx, MethodGetExtensions)
	if err != nil {
		return nil, err
	}
	name := methodNames[MethodGetExtensions]
	switch stack[0].SumType {
	case "VmStkNull":
		return nil, nil
	case "VmStkCell":
		cell := stack[0].VmStkCell.Value
		return &cell, nil
	}
	return nil, &QueryError{Method: name, Err: fmt.Errorf("unexpected stack value %v", stack[0].SumType)}
}

// Status is a snapshot of the wallet state.
type Status struct {
	WalletID      int32
	PublicKey     ed25519.PublicKey
	Seqno         uint32
	SignatureAuth int
	Extensions    []ton.AccountID
}

// Status runs all queries concurrently. Only signature auth tolerates a failure.
func (c *StateClient) Status(ctx context.Context) (Status, error) {
	var res Status
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.WalletID, err = c.GetWalletID(ctx)
		return err
	})
	g.Go(func() (err error) {
		res.PublicKey, err = c.GetPublicKey(ctx)
		return err
	})
	g.Go(func() (err error) {
		res.Seqno, err = c.GetSeqno(ctx)
		return err
	})
	g.Go(func() error {
		res.SignatureAuth = c.GetIsSignatureAuthAllowed(ctx)
		return nil
	})
	g.Go(func() (err error) {
		res.Extensions, err = c.GetExtensionsList(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Status{}, err
	}
	return res, nil
}

type abiMethod func(ctx context.Context, executor abi.Executor, accountID ton.AccountID) (string, any, error)

// exitCodeExecutor turns a missing get method into ErrUnsupportedMethod before abi decoding.
type exitCodeExecutor struct {
	Executor
}

func (e exitCodeExecutor) RunSmcMethodByID(ctx context.Context, accountID ton.AccountID, methodID int, params tlb.VmStack) (uint32, tlb.VmStack, error) {
	exitCode, stack, err := e.Executor.RunSmcMethodByID(ctx, accountID, methodID, params)
	if err != nil {
		return exitCode, stack, err
	}
	if exitCode == exitCodeMethodNotFound {
		return exitCode, nil, ErrUnsupportedMethod
	}
	return exitCode, stack, nil
}

func (c *StateClient) runAbi(ctx context.Context, methodID int, method abiMethod) (any, error) {
	name := methodNames[methodID]
	address, err := c.wallet.Address()
	if err != nil {
		return nil, &QueryError{Method: name, Err: err}
	}
	_, res, err := method(ctx, exitCodeExecutor{c.executor}, address)
	if err != nil {
		return nil, &QueryError{Method: name, Err: err}
	}
	return res, nil
}

func unexpectedResult(methodID int, res any) error {
	return &QueryError{Method: methodNames[methodID], Err: fmt.Errorf("unexpected result %T", res)}
}

func (c *StateClient) run(ctx context.Context, methodID int) (tlb.VmStack, error) {
	name := methodNames[methodID]
	address, err := c.wallet.Address()
	if err != nil {
		return nil, &QueryError{Method: name, Err: err}
	}
	exitCode, stack, err := c.executor.RunSmcMethodByID(ctx, address, methodID, tlb.VmStack{})
	if err != nil {
		return nil, &QueryError{Method: name, Err: err}
	}
	if exitCode == exitCodeMethodNotFound {
		return nil, &QueryError{Method: name, Err: ErrUnsupportedMethod}
	}
	if exitCode != 0 && exitCode != 1 {
		return nil, &QueryError{Method: name, Err: fmt.Errorf("exit code %d", exitCode)}
	}
	if len(stack) == 0 {
		return nil, &QueryError{Method: name, Err: fmt.Errorf("empty stack")}
	}
	return stack, nil
}

func (c *StateClient) runInt(ctx context.Context, methodID int) (*big.Int, error) {
	stack, err := c.run(ctx, methodID)
	if err != nil {
		return nil, err
	}
	v, err := stackInt(stack[0])
	if err != nil {
		return nil, &QueryError{Method: methodNames[methodID], Err: err}
	}
	return v, nil
}

func stackInt(v tlb.VmStackValue) (*big.Int, error) {
	switch v.SumType {
	case "VmStkTinyInt":
		return big.NewInt(v.VmStkTinyInt), nil
	case "VmStkInt":
		i := big.Int(v.VmStkInt)
		return new(big.Int).Set(&i), nil
	}
	return nil, fmt.Errorf("expected integer, got %v", v.SumType)
}
