package wallet

import (
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/crypto/ed25519"
)

type Config struct {
	Identity Identity
	// PublicKey may be omitted when the wallet only signs with a secret key at hand.
	PublicKey ed25519.PublicKey
	// Address overrides the address derived from the state init.
	Address *ton.AccountID
}

// Wallet is a handle of one W5 wallet contract.
type Wallet struct {
	identity  Identity
	publicKey ed25519.PublicKey
	address   *ton.AccountID
}

func New(cfg Config) (*Wallet, error) {
	if _, err := cfg.Identity.version.revision(); err != nil {
		return nil, err
	}
	if cfg.PublicKey != nil && len(cfg.PublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidArgument, ed25519.PublicKeySize)
	}
	if cfg.PublicKey == nil && cfg.Address == nil {
		return nil, fmt.Errorf("%w: either public key or address is required", ErrInvalidArgument)
	}
	w := &Wallet{identity: cfg.Identity}
	if cfg.PublicKey != nil {
		w.publicKey = append(ed25519.PublicKey(nil), cfg.PublicKey...)
	}
	if cfg.Address != nil {
		a := *cfg.Address
		w.address = &a
	}
	return w, nil
}

// FromPrivateKey creates a handle for the wallet owned by the key.
func FromPrivateKey(identity Identity, key ed25519.PrivateKey) (*Wallet, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrInvalidArgument, ed25519.PrivateKeySize)
	}
	return New(Config{Identity: identity, PublicKey: key.Public().(ed25519.PublicKey)})
}

func (w *Wallet) Identity() Identity {
	return w.identity
}

// PublicKey returns nil if the handle was created from an address only.
func (w *Wallet) PublicKey() ed25519.PublicKey {
	return w.publicKey
}

// Address returns the configured address or the one derived from the state init.
func (w *Wallet) Address() (ton.AccountID, error) {
	if w.address != nil {
		return *w.address, nil
	}
	return w.derivedAddress(w.publicKey)
}

func (w *Wallet) derivedAddress(publicKey ed25519.PublicKey) (ton.AccountID, error) {
	stateInit, err := w.stateInit(publicKey)
	if err != nil {
		return ton.AccountID{}, err
	}
	h, err := stateInit.Hash()
	if err != nil {
		return ton.AccountID{}, err
	}
	id := ton.AccountID{Workchain: int32(w.identity.workChain)}
	copy(id.Address[:], h)
	return id, nil
}

// StateInit builds the deploy state init from the handle public key.
func (w *Wallet) StateInit() (*boc.Cell, error) {
	return w.stateInit(w.publicKey)
}

func (w *Wallet) stateInit(publicKey ed25519.PublicKey) (*boc.Cell, error) {
	init, err := w.tlbStateInit(publicKey)
	if err != nil {
		return nil, err
	}
	return stateInitCell(init)
}

func stateInitCell(init *tlb.StateInit) (*boc.Cell, error) {
	c := boc.NewCell()
	if err := tlb.Marshal(c, init); err != nil {
		return nil, fmt.Errorf("state init: %w", err)
	}
	return c, nil
}

func (w *Wallet) tlbStateInit(publicKey ed25519.PublicKey) (*tlb.StateInit, error) {
	s, err := w.identity.version.revision()
	if err != nil {
		return nil, err
	}
	if publicKey == nil {
		return nil, fmt.Errorf("%w: public key is unknown", ErrInvalidArgument)
	}
	code, err := w.identity.version.Code()
	if err != nil {
		return nil, err
	}
	data, err := s.data(w.identity.serialized, publicKey)
	if err != nil {
		return nil, err
	}
	return &tlb.StateInit{
		Code: tlb.Maybe[tlb.Ref[boc.Cell]]{Exists: true, Value: tlb.Ref[boc.Cell]{Value: *code}},
		Data: tlb.Maybe[tlb.Ref[boc.Cell]]{Exists: true, Value: tlb.Ref[boc.Cell]{Value: *data}},
	}, nil
}
