package core

import (
	"encoding/hex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestKeyFromMnemonic(t *testing.T) {
	mnemonic := strings.Repeat("abandon ", 23) + "art"
	key, err := KeyFromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, "88965e4e6f686bad4be63761f4d8fa1cc682bccf11f8382bd281304d07b76edc", hex.EncodeToString(key.Seed()))

	// extra whitespace does not change the phrase
	again, err := KeyFromMnemonic("  " + strings.ReplaceAll(mnemonic, " ", "\n") + " ")
	require.NoError(t, err)
	assert.Equal(t, key, again)

	_, err = KeyFromMnemonic("abandon art")
	require.Error(t, err)
}

func TestKeyFromSeed(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	key, err := KeyFromSeed(hex.EncodeToString(seed))
	require.NoError(t, err)
	assert.Equal(t, "bcc6047bc84954d3434ade31768af7698b4469bb64b81e43d917c123023a89e3", hex.EncodeToString(key.Seed()))

	_, err = KeyFromSeed("abcd")
	require.Error(t, err)
	_, err = KeyFromSeed("not hex")
	require.Error(t, err)
}
