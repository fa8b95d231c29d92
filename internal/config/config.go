package config

import (
	"errors"
	"github.com/caarlos0/env/v6"
	"github.com/tonkeeper/tongo/config"
	"github.com/tonkeeper/tongo/ton"
	"github.com/txsociety/w5signer/pkg/core"
	"github.com/txsociety/w5signer/pkg/wallet"
	"golang.org/x/crypto/ed25519"
	"log/slog"
	"reflect"
	"time"
)

type Config struct {
	Port            int                 `env:"PORT" envDefault:"8081"`
	LogLevel        slog.Level          `env:"LOG_LEVEL" envDefault:"INFO"`
	PostgresURI     string              `env:"POSTGRES_URI,required"`
	Token           string              `env:"TOKEN,required"`
	LiteServers     []config.LiteServer `env:"LITE_SERVERS"`
	LiteRPS         float64             `env:"LITE_RPS" envDefault:"0"`
	EmulateMethods  bool                `env:"EMULATE_GET_METHODS" envDefault:"false"`
	WebhookEndpoint string              `env:"WEBHOOK_ENDPOINT"`
	// Wallet identity
	NetworkGlobalID int32          `env:"NETWORK_GLOBAL_ID" envDefault:"-239"`
	WorkChain       int32          `env:"WORKCHAIN" envDefault:"0"`
	Subwallet       uint32         `env:"SUBWALLET" envDefault:"0"`
	Version         wallet.Version `env:"WALLET_VERSION" envDefault:"v5r1"`
	// Address overrides the address derived from the key, for wallets deployed with other code
	Address ton.AccountID `env:"WALLET_ADDRESS"`
	// Exactly one of Seed (32 bytes in hex) and Mnemonic (24 words) must be set
	Seed             string        `env:"WALLET_SEED"`
	Mnemonic         string        `env:"WALLET_MNEMONIC"`
	MessageTTL       time.Duration `env:"MESSAGE_TTL" envDefault:"60s"`
	DispatchInterval time.Duration `env:"DISPATCH_INTERVAL" envDefault:"2s"`
}

func Load() Config {
	c, err := parse()
	if err != nil {
		panic("parse config error: " + err.Error())
	}
	return c
}

func parse() (Config, error) {
	var (
		c  Config
		ll slog.Level
	)
	if err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(ll): func(v string) (interface{}, error) {
			var level slog.Level
			err := level.UnmarshalText([]byte(v))
			return level, err
		},
		reflect.TypeOf([]config.LiteServer{}): func(v string) (interface{}, error) {
			servers, err := config.ParseLiteServersEnvVar(v)
			if err != nil {
				return nil, err
			}
			return servers, nil
		},
		reflect.TypeOf(ton.AccountID{}): func(v string) (interface{}, error) {
			addr, err := ton.ParseAccountID(v)
			if err != nil {
				return nil, err
			}
			return addr, nil
		},
		reflect.TypeOf(wallet.Version(0)): func(v string) (interface{}, error) {
			return wallet.ParseVersion(v)
		},
	}); err != nil {
		return Config{}, err
	}
	if (len(c.Seed) > 0) == (len(c.Mnemonic) > 0) {
		return Config{}, errors.New("exactly one of WALLET_SEED and WALLET_MNEMONIC must be set")
	}
	return c, nil
}

// Testnet reports whether the configured network is the TON testnet.
func (c Config) Testnet() bool {
	return c.NetworkGlobalID == wallet.TestnetGlobalID
}

func (c Config) Identity() (wallet.Identity, error) {
	return wallet.NewIdentity(wallet.IdentityConfig{
		NetworkGlobalID: c.NetworkGlobalID,
		WorkChain:       c.WorkChain,
		SubwalletNumber: c.Subwallet,
		Version:         c.Version,
	})
}

// Wallet returns the wallet handle and its signing key.
func (c Config) Wallet() (*wallet.Wallet, ed25519.PrivateKey, error) {
	identity, err := c.Identity()
	if err != nil {
		return nil, nil, err
	}
	key, err := c.PrivateKey()
	if err != nil {
		return nil, nil, err
	}
	cfg := wallet.Config{
		Identity:  identity,
		PublicKey: key.Public().(ed25519.PublicKey),
	}
	if c.Address != (ton.AccountID{}) {
		cfg.Address = &c.Address
	}
	w, err := wallet.New(cfg)
	return w, key, err
}

func (c Config) PrivateKey() (ed25519.PrivateKey, error) {
	if len(c.Seed) > 0 {
		return core.KeyFromSeed(c.Seed)
	}
	return core.KeyFromMnemonic(c.Mnemonic)
}
