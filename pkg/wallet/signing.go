package wallet

import (
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"math"
	"time"
)

// DefaultValidity is used when a request does not set ValidUntil.
const DefaultValidity = 60 * time.Second

// NoExpiry is the validity sentinel of the deploy transaction.
const NoExpiry uint32 = 0xffffffff

type AuthKind int

const (
	AuthExternal AuthKind = iota + 1
	AuthInternal
	AuthExtension
)

func (k AuthKind) String() string {
	switch k {
	case AuthExternal:
		return "external"
	case AuthInternal:
		return "internal"
	case AuthExtension:
		return "extension"
	}
	return fmt.Sprintf("AuthKind(%d)", int(k))
}

// defining it this way to mock in tests
var timeNow = time.Now

type SigningRequest struct {
	Seqno uint32
	// ValidUntil defaults to now + DefaultValidity. Ignored when Seqno is 0.
	ValidUntil time.Time
	Actions    []Action
	Auth       AuthKind
}

// SigningMessage is the unsigned request payload. It is re-encoded from its fields on every use.
type SigningMessage struct {
	Auth       AuthKind
	Opcode     uint32
	WalletID   int32
	ValidUntil uint32
	Seqno      uint32
	// QueryID is only written for extension requests.
	QueryID uint64
	Actions []Action

	version Version
}

// BuildSigningMessage assembles the payload for the given auth kind.
func (id Identity) BuildSigningMessage(req SigningRequest) (SigningMessage, error) {
	s, err := id.version.revision()
	if err != nil {
		return SigningMessage{}, err
	}
	msg := SigningMessage{Auth: req.Auth, version: id.version}
	switch req.Auth {
	case AuthExtension:
		msg.Opcode = s.opcodes.AuthExtension
		return msg, nil
	case AuthExternal:
		msg.Opcode = s.opcodes.AuthSignedExternal
	case AuthInternal:
		msg.Opcode = s.opcodes.AuthSignedInternal
	default:
		return SigningMessage{}, fmt.Errorf("%w: unknown auth kind %v", ErrInvalidArgument, req.Auth)
	}
	msg.WalletID = id.serialized
	msg.Seqno = req.Seqno
	msg.Actions = append([]Action(nil), req.Actions...)
	switch {
	case req.Seqno == 0:
		// the contract has no notion of time before it is deployed
		msg.ValidUntil = NoExpiry
	case req.ValidUntil.IsZero():
		msg.ValidUntil = uint32(timeNow().Add(DefaultValidity).Unix())
	default:
		unix := req.ValidUntil.Unix()
		if unix < 0 || unix > math.MaxUint32 {
			return SigningMessage{}, fmt.Errorf("%w: valid until %v does not fit 32-bit unix time", ErrInvalidArgument, req.ValidUntil)
		}
		msg.ValidUntil = uint32(unix)
	}
	// fail fast on malformed actions
	if _, err := msg.Cell(); err != nil {
		return SigningMessage{}, err
	}
	return msg, nil
}

// ExtensionRequest is the body an installed extension sends to the wallet to run actions
// without an owner signature.
func (id Identity) ExtensionRequest(queryID uint64, actions []Action) (*boc.Cell, error) {
	s, err := id.version.revision()
	if err != nil {
		return nil, err
	}
	c := boc.NewCell()
	if err := c.WriteUint(uint64(s.opcodes.AuthExtension), 32); err != nil {
		return nil, err
	}
	if err := c.WriteUint(queryID, 64); err != nil {
		return nil, err
	}
	if err := writeInnerRequest(c, s, actions); err != nil {
		return nil, err
	}
	return c, nil
}

func (m SigningMessage) Version() Version {
	return m.version
}

// Cell encodes the payload into a new cell.
func (m SigningMessage) Cell() (*boc.Cell, error) {
	c := boc.NewCell()
	if err := m.write(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Hash is the representation hash that gets signed.
func (m SigningMessage) Hash() ([]byte, error) {
	c, err := m.Cell()
	if err != nil {
		return nil, err
	}
	return c.Hash()
}

func (m SigningMessage) write(c *boc.Cell) error {
	s, err := m.version.revision()
	if err != nil {
		return err
	}
	if err := c.WriteUint(uint64(m.Opcode), 32); err != nil {
		return err
	}
	if m.Auth == AuthExtension {
		return c.WriteUint(m.QueryID, 64)
	}
	if err := c.WriteUint(uint64(uint32(m.WalletID)), 32); err != nil {
		return err
	}
	if err := c.WriteUint(uint64(m.ValidUntil), 32); err != nil {
		return err
	}
	if err := c.WriteUint(uint64(m.Seqno), 32); err != nil {
		return err
	}
	return writeInnerRequest(c, s, m.Actions)
}

// ParseSigningMessage decodes a payload, signed or not. The signature is returned when present.
func (v Version) ParseSigningMessage(c *boc.Cell) (SigningMessage, []byte, error) {
	s, err := v.revision()
	if err != nil {
		return SigningMessage{}, nil, err
	}
	if c == nil {
		return SigningMessage{}, nil, fmt.Errorf("%w: nil cell", ErrInvalidArgument)
	}
	c.ResetCounters()
	op, err := c.ReadUint(32)
	if err != nil {
		return SigningMessage{}, nil, err
	}
	msg := SigningMessage{Opcode: uint32(op), version: v}
	switch msg.Opcode {
	case s.opcodes.AuthExtension:
		msg.Auth = AuthExtension
		if msg.QueryID, err = c.ReadUint(64); err != nil {
			return SigningMessage{}, nil, err
		}
		if c.BitsAvailableForRead() == 0 && c.RefsAvailableForRead() == 0 {
			return msg, nil, nil
		}
		if msg.Actions, err = readInnerRequest(c, s); err != nil {
			return SigningMessage{}, nil, err
		}
		return msg, nil, nil
	case s.opcodes.AuthSignedExternal:
		msg.Auth = AuthExternal
	case s.opcodes.AuthSignedInternal:
		msg.Auth = AuthInternal
	default:
		return SigningMessage{}, nil, fmt.Errorf("unknown auth opcode %#x", op)
	}
	walletID, err := c.ReadUint(32)
	if err != nil {
		return SigningMessage{}, nil, err
	}
	msg.WalletID = int32(uint32(walletID))
	validUntil, err := c.ReadUint(32)
	if err != nil {
		return SigningMessage{}, nil, err
	}
	msg.ValidUntil = uint32(validUntil)
	seqno, err := c.ReadUint(32)
	if err != nil {
		return SigningMessage{}, nil, err
	}
	msg.Seqno = uint32(seqno)
	if msg.Actions, err = readInnerRequest(c, s); err != nil {
		return SigningMessage{}, nil, err
	}
	if c.BitsAvailableForRead() < SignatureSize*8 {
		return msg, nil, nil
	}
	signature, err := c.ReadBytes(SignatureSize)
	if err != nil {
		return SigningMessage{}, nil, err
	}
	return msg, signature, nil
}
