package wallet

import (
	"errors"
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"golang.org/x/crypto/ed25519"
	"math"
)

const SignatureSize = ed25519.SignatureSize

// defining it this way to mock in tests
var ed25519Sign = ed25519.Sign

// ExternalMessage is an assembled ext_in message. Owned by the caller.
type ExternalMessage struct {
	Destination ton.AccountID
	// StateInit is set only for the deploy transaction.
	StateInit *boc.Cell
	Body      *boc.Cell
	Signature [SignatureSize]byte
	Envelope  *boc.Cell
}

var errNoEnvelope = errors.New("external message is not assembled")

func (m ExternalMessage) ToBoc() ([]byte, error) {
	if m.Envelope == nil {
		return nil, errNoEnvelope
	}
	return m.Envelope.ToBoc()
}

func (m ExternalMessage) ToBocBase64() (string, error) {
	if m.Envelope == nil {
		return "", errNoEnvelope
	}
	return m.Envelope.ToBocBase64()
}

func (m ExternalMessage) Hash() (ton.Bits256, error) {
	if m.Envelope == nil {
		return ton.Bits256{}, errNoEnvelope
	}
	h, err := m.Envelope.Hash()
	if err != nil {
		return ton.Bits256{}, err
	}
	var res ton.Bits256
	copy(res[:], h)
	return res, nil
}

type assembleOptions struct {
	dummySignature bool
}

type AssembleOption func(*assembleOptions)

// WithDummySignature replaces the signature with zeroes. Such messages are good only for emulation.
func WithDummySignature() AssembleOption {
	return func(o *assembleOptions) {
		o.dummySignature = true
	}
}

// Assemble signs msg and wraps it into an external message addressed to the wallet.
// For seqno 0 the state init is attached.
func (w *Wallet) Assemble(msg SigningMessage, key ed25519.PrivateKey, seqno int64, opts ...AssembleOption) (ExternalMessage, error) {
	if seqno < 0 || seqno > math.MaxUint32 {
		return ExternalMessage{}, fmt.Errorf("%w: seqno must be a non-negative integer", ErrInvalidArgument)
	}
	var o assembleOptions
	for _, f := range opts {
		f(&o)
	}
	body, signature, err := signedBody(msg, key, o.dummySignature)
	if err != nil {
		return ExternalMessage{}, err
	}
	res := ExternalMessage{Body: body, Signature: signature}
	publicKey := w.publicKey
	if publicKey == nil && len(key) == ed25519.PrivateKeySize {
		publicKey = key.Public().(ed25519.PublicKey)
	}
	var init *tlb.StateInit
	if seqno == 0 {
		if init, err = w.tlbStateInit(publicKey); err != nil {
			return ExternalMessage{}, err
		}
		if res.StateInit, err = stateInitCell(init); err != nil {
			return ExternalMessage{}, err
		}
	}
	if w.address != nil {
		res.Destination = *w.address
	} else {
		res.Destination, err = w.derivedAddress(publicKey)
		if err != nil {
			return ExternalMessage{}, err
		}
	}
	res.Envelope, err = externalEnvelope(res.Destination, init, res.Body)
	if err != nil {
		return ExternalMessage{}, err
	}
	return res, nil
}

// SignBody returns payload | signature, the body of an internal message authorized by signature.
func SignBody(msg SigningMessage, key ed25519.PrivateKey) (*boc.Cell, error) {
	if msg.Auth != AuthInternal {
		return nil, fmt.Errorf("%w: %v request can not be sent as internal message", ErrInvalidArgument, msg.Auth)
	}
	body, _, err := signedBody(msg, key, false)
	return body, err
}

func signedBody(msg SigningMessage, key ed25519.PrivateKey, dummy bool) (*boc.Cell, [SignatureSize]byte, error) {
	var signature [SignatureSize]byte
	if msg.Auth == AuthExtension {
		return nil, signature, fmt.Errorf("%w: extension requests are not signed", ErrInvalidArgument)
	}
	body, err := msg.Cell()
	if err != nil {
		return nil, signature, err
	}
	if !dummy {
		if len(key) != ed25519.PrivateKeySize {
			return nil, signature, fmt.Errorf("%w: private key must be %d bytes", ErrInvalidArgument, ed25519.PrivateKeySize)
		}
		hash, err := body.Hash()
		if err != nil {
			return nil, signature, err
		}
		copy(signature[:], ed25519Sign(key, hash))
	}
	if err := body.WriteBytes(signature[:]); err != nil {
		return nil, signature, err
	}
	return body, signature, nil
}

// externalEnvelope keeps the state init and the body in references.
func externalEnvelope(dest ton.AccountID, stateInit *tlb.StateInit, body *boc.Cell) (*boc.Cell, error) {
	msg, err := ton.CreateExternalMessage(dest, body, stateInit, tlb.VarUInteger16{})
	if err != nil {
		return nil, err
	}
	msg.Body.IsRight = true
	if stateInit != nil {
		msg.Init.Value.IsRight = true
	}
	c := boc.NewCell()
	if err := tlb.Marshal(c, msg); err != nil {
		return nil, fmt.Errorf("external message: %w", err)
	}
	return c, nil
}
