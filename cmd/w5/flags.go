package main

import (
	"encoding/hex"
	"errors"
	"github.com/txsociety/w5signer/pkg/core"
	"github.com/txsociety/w5signer/pkg/wallet"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ed25519"
)

func identityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "testnet",
			Usage:   "use the testnet global id",
			EnvVars: []string{"TESTNET"},
		},
		&cli.IntFlag{
			Name:    "workchain",
			Usage:   "wallet workchain",
			EnvVars: []string{"WORKCHAIN"},
		},
		&cli.UintFlag{
			Name:    "subwallet",
			Usage:   "subwallet number",
			EnvVars: []string{"SUBWALLET"},
		},
	}
}

func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "seed",
			Usage:   "32 bytes private key seed in hex",
			EnvVars: []string{"WALLET_SEED"},
		},
		&cli.StringFlag{
			Name:    "mnemonic",
			Usage:   "24 words mnemonic",
			EnvVars: []string{"WALLET_MNEMONIC"},
		},
		&cli.StringFlag{
			Name:  "pubkey",
			Usage: "public key in hex, when no private key is given",
		},
	}
}

func identityFromFlags(c *cli.Context) (wallet.Identity, error) {
	cfg := wallet.DefaultIdentityConfig()
	if c.Bool("testnet") {
		cfg.NetworkGlobalID = wallet.TestnetGlobalID
	}
	cfg.WorkChain = int32(c.Int("workchain"))
	cfg.SubwalletNumber = uint32(c.Uint("subwallet"))
	return wallet.NewIdentity(cfg)
}

// privateKeyFromFlags returns nil without an error when no private key is configured.
func privateKeyFromFlags(c *cli.Context) (ed25519.PrivateKey, error) {
	switch {
	case c.IsSet("seed") && c.IsSet("mnemonic"):
		return nil, errors.New("seed and mnemonic are exclusive")
	case len(c.String("seed")) > 0:
		return core.KeyFromSeed(c.String("seed"))
	case len(c.String("mnemonic")) > 0:
		return core.KeyFromMnemonic(c.String("mnemonic"))
	}
	return nil, nil
}

func walletFromFlags(c *cli.Context) (*wallet.Wallet, ed25519.PrivateKey, error) {
	identity, err := identityFromFlags(c)
	if err != nil {
		return nil, nil, err
	}
	key, err := privateKeyFromFlags(c)
	if err != nil {
		return nil, nil, err
	}
	if key != nil {
		w, err := wallet.FromPrivateKey(identity, key)
		return w, key, err
	}
	if len(c.String("pubkey")) == 0 {
		return nil, nil, errors.New("one of seed, mnemonic or pubkey is required")
	}
	pub, err := hex.DecodeString(c.String("pubkey"))
	if err != nil {
		return nil, nil, err
	}
	w, err := wallet.New(wallet.Config{Identity: identity, PublicKey: pub})
	return w, nil, err
}
