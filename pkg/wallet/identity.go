package wallet

import (
	"fmt"
	"math"
)

// IdentityConfig enumerates every parameter of a wallet identity.
// Start from DefaultIdentityConfig and override what differs.
type IdentityConfig struct {
	// NetworkGlobalID is MainnetGlobalID (-239) by default.
	NetworkGlobalID int32
	// WorkChain must fit a signed byte. 0 by default.
	WorkChain int32
	// SubwalletNumber distinguishes wallets sharing one key. 0 by default.
	SubwalletNumber uint32
	// Version is V5R1 by default.
	Version Version
}

func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		NetworkGlobalID: MainnetGlobalID,
		WorkChain:       0,
		SubwalletNumber: 0,
		Version:         V5R1,
	}
}

// Identity is an immutable wallet identity with its derived wallet id.
type Identity struct {
	networkGlobalID int32
	workChain       int8
	subwallet       uint32
	version         Version
	packed          uint32
	serialized      int32
}

func NewIdentity(cfg IdentityConfig) (Identity, error) {
	rev, err := cfg.Version.revision()
	if err != nil {
		return Identity{}, err
	}
	if cfg.WorkChain < math.MinInt8 || cfg.WorkChain > math.MaxInt8 {
		return Identity{}, fmt.Errorf("%w: workchain %d does not fit 8 bits", ErrInvalidArgument, cfg.WorkChain)
	}
	if cfg.SubwalletNumber > rev.maxSubwallet {
		return Identity{}, fmt.Errorf("%w: subwallet number %d exceeds %d", ErrInvalidArgument, cfg.SubwalletNumber, rev.maxSubwallet)
	}
	packed := rev.pack(int8(cfg.WorkChain), rev.versionCode, cfg.SubwalletNumber)
	return Identity{
		networkGlobalID: cfg.NetworkGlobalID,
		workChain:       int8(cfg.WorkChain),
		subwallet:       cfg.SubwalletNumber,
		version:         cfg.Version,
		packed:          packed,
		serialized:      int32(uint32(cfg.NetworkGlobalID) ^ packed),
	}, nil
}

func (id Identity) NetworkGlobalID() int32 {
	return id.networkGlobalID
}

func (id Identity) WorkChain() int8 {
	return id.workChain
}

func (id Identity) SubwalletNumber() uint32 {
	return id.subwallet
}

func (id Identity) Version() Version {
	return id.version
}

// PackedContext is the 32-bit block XOR-ed with the network id.
func (id Identity) PackedContext() uint32 {
	return id.packed
}

// SerializedID is the wallet id stored in the contract data and every signed request.
func (id Identity) SerializedID() int32 {
	return id.serialized
}

// WalletID is SerializedID as the unsigned value returned by get_subwallet_id.
func (id Identity) WalletID() uint32 {
	return uint32(id.serialized)
}

func (id Identity) Config() IdentityConfig {
	return IdentityConfig{
		NetworkGlobalID: id.networkGlobalID,
		WorkChain:       int32(id.workChain),
		SubwalletNumber: id.subwallet,
		Version:         id.version,
	}
}

func (id Identity) String() string {
	return fmt.Sprintf("%s(network=%d, workchain=%d, subwallet=%d, id=%d)",
		id.version, id.networkGlobalID, id.workChain, id.subwallet, id.WalletID())
}
