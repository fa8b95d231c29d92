package wallet

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"math/big"
	"sync"
	"testing"
)

type methodResult struct {
	exitCode uint32
	stack    tlb.VmStack
	err      error
}

type mockExecutor struct {
	mu      sync.Mutex
	results map[int]methodResult
	calls   map[int]int
	account ton.AccountID
}

func (m *mockExecutor) RunSmcMethodByID(ctx context.Context, accountID ton.AccountID, methodID int, params tlb.VmStack) (uint32, tlb.VmStack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[int]int{}
	}
	m.calls[methodID]++
	m.account = accountID
	r, ok := m.results[methodID]
	if !ok {
		return exitCodeMethodNotFound, nil, nil
	}
	return r.exitCode, r.stack, r.err
}

func tinyInt(v int64) methodResult {
	return methodResult{stack: tlb.VmStack{{SumType: "VmStkTinyInt", VmStkTinyInt: v}}}
}

func bigInt(v *big.Int) methodResult {
	return methodResult{stack: tlb.VmStack{{SumType: "VmStkInt", VmStkInt: tlb.Int257(*v)}}}
}

// single entry (Hashmap 256 int1): hml_long label with the full key, then the value bit
func extensionsDict(t *testing.T, key ton.Bits256) *boc.Cell {
	t.Helper()
	c := boc.NewCell()
	require.NoError(t, c.WriteUint(0b10, 2))
	require.NoError(t, c.WriteUint(256, 9))
	require.NoError(t, c.WriteBytes(key[:]))
	require.NoError(t, c.WriteBit(true))
	return c
}

func TestStateClient(t *testing.T) {
	w := testWallet(t)
	pub := new(big.Int).SetBytes(w.PublicKey())
	executor := &mockExecutor{results: map[int]methodResult{
		MethodSeqno:              tinyInt(12),
		MethodGetSubwalletID:     tinyInt(2147483409),
		MethodGetPublicKey:       bigInt(pub),
		MethodIsSignatureAllowed: tinyInt(-1),
		MethodGetExtensions: {stack: tlb.VmStack{{
			SumType:   "VmStkCell",
			VmStkCell: tlb.Ref[boc.Cell]{Value: *extensionsDict(t, ton.Bits256(extensionA.Address))},
		}}},
	}}
	client := NewStateClient(w, executor)
	ctx := context.Background()

	seqno, err := client.GetSeqno(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), seqno)

	walletID, err := client.GetWalletID(ctx)
	require.NoError(t, err)
	assert.Equal(t, w.Identity().SerializedID(), walletID)

	key, err := client.GetPublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), key)

	assert.Equal(t, 1, client.GetIsSignatureAuthAllowed(ctx))

	extensions, err := client.GetExtensionsList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ton.AccountID{extensionA}, extensions)

	address, err := w.Address()
	require.NoError(t, err)
	assert.Equal(t, address, executor.account)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), status.Seqno)
	assert.Equal(t, 1, status.SignatureAuth)
	assert.Len(t, status.Extensions, 1)
}

func TestGetIsSignatureAuthAllowedFallback(t *testing.T) {
	w := testWallet(t)
	tests := []struct {
		name   string
		result *methodResult
		want   int
	}{
		{name: "allowed", result: &methodResult{stack: tlb.VmStack{{SumType: "VmStkTinyInt", VmStkTinyInt: -1}}}, want: 1},
		{name: "forbidden", result: &methodResult{stack: tlb.VmStack{{SumType: "VmStkTinyInt", VmStkTinyInt: 0}}}, want: 0},
		{name: "transport error", result: &methodResult{err: errors.New("connection reset")}, want: -1},
		{name: "method missing", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &mockExecutor{results: map[int]methodResult{}}
			if tt.result != nil {
				executor.results[MethodIsSignatureAllowed] = *tt.result
			}
			client := NewStateClient(w, executor)
			assert.Equal(t, tt.want, client.GetIsSignatureAuthAllowed(context.Background()))
			assert.Equal(t, 1, executor.calls[MethodIsSignatureAllowed])
		})
	}
}

func TestStateClientErrors(t *testing.T) {
	w := testWallet(t)
	cause := errors.New("timeout")
	executor := &mockExecutor{results: map[int]methodResult{
		MethodSeqno: {err: cause},
	}}
	client := NewStateClient(w, executor)

	_, err := client.GetSeqno(context.Background())
	require.ErrorIs(t, err, cause)
	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "seqno", qErr.Method)

	_, err = client.GetPublicKey(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = client.IsSignatureAuthAllowed(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = client.Status(context.Background())
	require.Error(t, err)
}

func TestGetExtensionsEmpty(t *testing.T) {
	executor := &mockExecutor{results: map[int]methodResult{
		MethodGetExtensions: {stack: tlb.VmStack{{SumType: "VmStkNull"}}},
	}}
	client := NewStateClient(testWallet(t), executor)
	dict, err := client.GetExtensions(context.Background())
	require.NoError(t, err)
	assert.Nil(t, dict)
	list, err := client.GetExtensionsList(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
