package wallet

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewIdentity(t *testing.T) {
	tests := []struct {
		name   string
		cfg    IdentityConfig
		wantID int32
	}{
		{
			name:   "mainnet default",
			cfg:    DefaultIdentityConfig(),
			wantID: 2147483409,
		},
		{
			name:   "testnet",
			cfg:    IdentityConfig{NetworkGlobalID: TestnetGlobalID, Version: V5R1},
			wantID: 2147483645,
		},
		{
			name:   "masterchain",
			cfg:    IdentityConfig{NetworkGlobalID: MainnetGlobalID, WorkChain: -1, Version: V5R1},
			wantID: 0x007fff11,
		},
		{
			name:   "subwallet",
			cfg:    IdentityConfig{NetworkGlobalID: MainnetGlobalID, SubwalletNumber: 1, Version: V5R1},
			wantID: 0x7fffff10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewIdentity(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id.SerializedID())
			assert.Equal(t, tt.cfg, id.Config())
		})
	}
}

func TestIdentityXorRoundTrip(t *testing.T) {
	for _, nid := range []int32{MainnetGlobalID, TestnetGlobalID, 0, 1, -1, 1 << 30} {
		for _, wc := range []int32{-128, -1, 0, 1, 127} {
			for _, sub := range []uint32{0, 1, 698, 0x7fff} {
				id, err := NewIdentity(IdentityConfig{NetworkGlobalID: nid, WorkChain: wc, SubwalletNumber: sub, Version: V5R1})
				require.NoError(t, err)
				assert.Equal(t, nid, int32(uint32(id.SerializedID())^id.PackedContext()))
				again, err := NewIdentity(id.Config())
				require.NoError(t, err)
				assert.Equal(t, id, again)
			}
		}
	}
}

func TestNewIdentityValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  IdentityConfig
	}{
		{name: "workchain too big", cfg: IdentityConfig{WorkChain: 128, Version: V5R1}},
		{name: "workchain too small", cfg: IdentityConfig{WorkChain: -129, Version: V5R1}},
		{name: "subwallet overflow", cfg: IdentityConfig{SubwalletNumber: 0x8000, Version: V5R1}},
		{name: "unknown version", cfg: IdentityConfig{Version: Unknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIdentity(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("V5R1")
	require.NoError(t, err)
	assert.Equal(t, V5R1, v)
	assert.Equal(t, "v5r1", v.String())

	_, err = ParseVersion("v4r2")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
