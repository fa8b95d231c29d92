package wallet

import (
	"encoding/hex"
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"golang.org/x/crypto/ed25519"
	"strings"
)

type Version int

const (
	Unknown Version = 0
	V5R1    Version = 51
)

// Network global ids
const (
	MainnetGlobalID int32 = -239
	TestnetGlobalID int32 = -3
)

// Opcodes is the fixed opcode set of a wallet revision.
type Opcodes struct {
	ActionSendMsg                  uint32
	ActionSetCode                  uint32
	ActionExtendedSetData          uint32
	ActionExtendedAddExtension     uint32
	ActionExtendedRemoveExtension  uint32
	ActionExtendedSetSignatureAuth uint32
	AuthExtension                  uint32
	AuthSignedExternal             uint32
	AuthSignedInternal             uint32
}

// V5R1Opcodes are the opcodes understood by the W5R1 contract.
var V5R1Opcodes = Opcodes{
	ActionSendMsg:                  0x0ec3c86d,
	ActionSetCode:                  0xad4de08e,
	ActionExtendedSetData:          0x1ff8ea0b,
	ActionExtendedAddExtension:     0x02,
	ActionExtendedRemoveExtension:  0x03,
	ActionExtendedSetSignatureAuth: 0x04,
	AuthExtension:                  0x6578746e,
	AuthSignedExternal:             0x7369676e,
	AuthSignedInternal:             0x73696e74,
}

// Verified W5R1 code, stored as a library cell:
// https://github.com/ton-blockchain/wallet-contract-v5
const _V5R1CodeHex = "b5ee9c7241010101002300084202e4cf3b2f4c6d6a61ea0f2b5447d266785b26af3637db2deee6bcd1aa826f34120dcd8e11"

type revision struct {
	name        string
	codeHex     string
	versionCode uint8
	opcodes     Opcodes
	// bit width of basic and extended action prefixes
	basicOpBits    int
	extendedOpBits int
	// maximum value of the subwallet number inside the packed context
	maxSubwallet uint32
	pack         func(workChain int8, versionCode uint8, subwallet uint32) uint32
	data         func(walletID int32, publicKey ed25519.PublicKey) (*boc.Cell, error)
}

var (
	versions = map[Version]revision{
		V5R1: {
			name:           "v5r1",
			codeHex:        _V5R1CodeHex,
			versionCode:    0,
			opcodes:        V5R1Opcodes,
			basicOpBits:    32,
			extendedOpBits: 8,
			maxSubwallet:   0x7fff,
			pack:           packV5R1Context,
			data:           v5r1DataCell,
		},
	}
	versionCodeBOC = map[Version][]byte{}
)

func init() {
	for ver, s := range versions {
		b, err := hex.DecodeString(s.codeHex)
		if err != nil {
			panic(err)
		}
		if _, err := boc.DeserializeBoc(b); err != nil {
			panic(fmt.Sprintf("invalid %s code: %v", s.name, err))
		}
		versionCodeBOC[ver] = b
	}
}

func (v Version) String() string {
	s, ok := versions[v]
	if !ok {
		return "unknown"
	}
	return s.name
}

// ParseVersion accepts names like "v5r1" or "V5R1".
func ParseVersion(s string) (Version, error) {
	for ver, rev := range versions {
		if strings.EqualFold(rev.name, s) {
			return ver, nil
		}
	}
	return Unknown, fmt.Errorf("%w: unknown wallet version %q", ErrInvalidArgument, s)
}

// Opcodes returns the opcode set of the version.
func (v Version) Opcodes() (Opcodes, error) {
	s, err := v.revision()
	if err != nil {
		return Opcodes{}, err
	}
	return s.opcodes, nil
}

func (v Version) revision() (revision, error) {
	s, ok := versions[v]
	if !ok {
		return revision{}, fmt.Errorf("%w: unsupported wallet version %d", ErrInvalidArgument, v)
	}
	return s, nil
}

// Code returns a fresh copy of the contract code cell.
func (v Version) Code() (*boc.Cell, error) {
	b, ok := versionCodeBOC[v]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported wallet version %d", ErrInvalidArgument, v)
	}
	cells, err := boc.DeserializeBoc(b)
	if err != nil {
		return nil, err
	}
	return cells[0], nil
}

func packV5R1Context(workChain int8, versionCode uint8, subwallet uint32) uint32 {
	return 1<<31 | uint32(uint8(workChain))<<23 | uint32(versionCode)<<15 | subwallet&0x7fff
}

// signature_allowed:1 seqno:32 wallet_id:32 public_key:256 extensions:(HashmapE 256 int1)
func v5r1DataCell(walletID int32, publicKey ed25519.PublicKey) (*boc.Cell, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidArgument, ed25519.PublicKeySize)
	}
	c := boc.NewCell()
	if err := c.WriteBit(true); err != nil {
		return nil, err
	}
	if err := c.WriteUint(0, 32); err != nil {
		return nil, err
	}
	if err := c.WriteUint(uint64(uint32(walletID)), 32); err != nil {
		return nil, err
	}
	if err := c.WriteBytes(publicKey); err != nil {
		return nil, err
	}
	if err := c.WriteBit(false); err != nil {
		return nil, err
	}
	return c, nil
}
