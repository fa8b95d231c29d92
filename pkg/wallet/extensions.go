package wallet

import (
	"context"
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// GetExtensionsList decodes the extensions dictionary. Keys are address hashes in the wallet workchain.
func (c *StateClient) GetExtensionsList(ctx context.Context) ([]ton.AccountID, error) {
	dict, err := c.GetExtensions(ctx)
	if err != nil {
		return nil, err
	}
	address, err := c.wallet.Address()
	if err != nil {
		return nil, err
	}
	extensions, err := DecodeExtensions(dict, address.Workchain)
	if err != nil {
		return nil, &QueryError{Method: methodNames[MethodGetExtensions], Err: err}
	}
	return extensions, nil
}

// DecodeExtensions reads the (Hashmap 256 int1) root returned by get_extensions.
func DecodeExtensions(dict *boc.Cell, workchain int32) ([]ton.AccountID, error) {
	if dict == nil {
		return nil, nil
	}
	dict.ResetCounters()
	var m tlb.Hashmap[tlb.Bits256, tlb.Any]
	if err := tlb.Unmarshal(dict, &m); err != nil {
		return nil, fmt.Errorf("invalid extensions dictionary: %w", err)
	}
	items := m.Items()
	res := make([]ton.AccountID, 0, len(items))
	for _, item := range items {
		res = append(res, ton.AccountID{Workchain: workchain, Address: item.Key})
	}
	return res, nil
}
