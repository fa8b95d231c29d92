package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/pbkdf2"
	"strings"
)

const (
	mnemonicWords      = 24
	mnemonicIterations = 100000
	mnemonicSalt       = "TON default seed"
)

// KeyFromSeed derives the wallet key from a 32 byte hex encoded seed.
func KeyFromSeed(seed string) (ed25519.PrivateKey, error) {
	b, err := hex.DecodeString(seed)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("seed must be 32 bytes long")
	}
	derived := pbkdf2.Key(b, []byte("wallet"), 1, 32, sha256.New)
	return ed25519.NewKeyFromSeed(derived), nil
}

// KeyFromMnemonic derives the key the same way TON wallet apps do for a mnemonic without password.
func KeyFromMnemonic(mnemonic string) (ed25519.PrivateKey, error) {
	words := strings.Fields(mnemonic)
	if len(words) != mnemonicWords {
		return nil, fmt.Errorf("mnemonic must have %d words, got %d", mnemonicWords, len(words))
	}
	mac := hmac.New(sha512.New, []byte(strings.Join(words, " ")))
	mac.Write([]byte{})
	entropy := mac.Sum(nil)
	seed := pbkdf2.Key(entropy, []byte(mnemonicSalt), mnemonicIterations, 64, sha512.New)
	return ed25519.NewKeyFromSeed(seed[:32]), nil
}
