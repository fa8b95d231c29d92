package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/w5signer/pkg/wallet"
	"log/slog"
	"os"
	"testing"
	"time"
)

const testSeed = "0707070707070707070707070707070707070707070707070707070707070707"

var testAddress = ton.MustParseAccountID("0:e4cf3b2f4c6d6a61ea0f2b5447d266785b26af3637db2deee6bcd1aa826f3412")

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_URI", "postgres://localhost/w5")
	t.Setenv("TOKEN", "secret")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("WALLET_SEED", testSeed)
	c, err := parse()
	require.NoError(t, err)
	assert.Equal(t, 8081, c.Port)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
	assert.Equal(t, wallet.MainnetGlobalID, c.NetworkGlobalID)
	assert.Equal(t, wallet.V5R1, c.Version)
	assert.Equal(t, 60*time.Second, c.MessageTTL)
	assert.False(t, c.Testnet())

	id, err := c.Identity()
	require.NoError(t, err)
	assert.Equal(t, int32(2147483409), id.SerializedID())

	w, key, err := c.Wallet()
	require.NoError(t, err)
	assert.Len(t, key, 64)
	assert.Equal(t, key.Public(), w.PublicKey())
}

func TestParseAddress(t *testing.T) {
	setRequired(t)
	t.Setenv("WALLET_SEED", testSeed)
	t.Setenv("WALLET_ADDRESS", testAddress.ToRaw())
	c, err := parse()
	require.NoError(t, err)
	assert.Equal(t, testAddress, c.Address)
	w, _, err := c.Wallet()
	require.NoError(t, err)
	address, err := w.Address()
	require.NoError(t, err)
	assert.Equal(t, testAddress, address)

	t.Setenv("WALLET_ADDRESS", "nope")
	_, err = parse()
	assert.Error(t, err)
}

func TestParseOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WALLET_SEED", testSeed)
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("NETWORK_GLOBAL_ID", "-3")
	t.Setenv("SUBWALLET", "1")
	t.Setenv("WALLET_VERSION", "V5R1")
	t.Setenv("MESSAGE_TTL", "5m")
	c, err := parse()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)
	assert.True(t, c.Testnet())
	assert.Equal(t, uint32(1), c.Subwallet)
	assert.Equal(t, 5*time.Minute, c.MessageTTL)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no key", env: map[string]string{}},
		{name: "both keys", env: map[string]string{"WALLET_SEED": testSeed, "WALLET_MNEMONIC": "abandon"}},
		{name: "unknown version", env: map[string]string{"WALLET_SEED": testSeed, "WALLET_VERSION": "v4r2"}},
		{name: "bad level", env: map[string]string{"WALLET_SEED": testSeed, "LOG_LEVEL": "LOUD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := parse()
			assert.Error(t, err)
		})
	}
}

func TestParseMissingRequired(t *testing.T) {
	t.Setenv("WALLET_SEED", testSeed)
	t.Setenv("TOKEN", "secret")
	t.Setenv("POSTGRES_URI", "")
	require.NoError(t, os.Unsetenv("POSTGRES_URI"))
	_, err := parse()
	assert.Error(t, err)
}
