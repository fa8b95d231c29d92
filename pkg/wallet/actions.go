package wallet

import (
	"errors"
	"fmt"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// MaxBasicActions is the out-action list limit of the contract.
const MaxBasicActions = 255

// Action is one of SendMessage, SetCode, AddExtension, RemoveExtension or SetSignatureAuthAllowed.
type Action interface {
	// basic actions go to the out-action list, extended ones are handled by the contract itself
	basic() bool
	write(c *boc.Cell, s revision) error
}

// SendMessage sends Message (a MessageRelaxed cell) with the given send mode.
type SendMessage struct {
	Mode    uint8
	Message *boc.Cell
}

// SetCode replaces the wallet code.
type SetCode struct {
	NewCode *boc.Cell
}

type AddExtension struct {
	Address ton.AccountID
}

type RemoveExtension struct {
	Address ton.AccountID
}

// SetSignatureAuthAllowed toggles whether owner signatures are accepted.
// Disabling it is only allowed while at least one extension is installed.
type SetSignatureAuthAllowed struct {
	Allowed bool
}

func (SendMessage) basic() bool             { return true }
func (SetCode) basic() bool                 { return true }
func (AddExtension) basic() bool            { return false }
func (RemoveExtension) basic() bool         { return false }
func (SetSignatureAuthAllowed) basic() bool { return false }

func (a SendMessage) write(c *boc.Cell, s revision) error {
	if a.Message == nil {
		return fmt.Errorf("%w: send message action without message", ErrInvalidArgument)
	}
	if err := c.WriteUint(uint64(s.opcodes.ActionSendMsg), s.basicOpBits); err != nil {
		return err
	}
	if err := c.WriteUint(uint64(a.Mode), 8); err != nil {
		return err
	}
	return c.AddRef(a.Message)
}

func (a SetCode) write(c *boc.Cell, s revision) error {
	if a.NewCode == nil {
		return fmt.Errorf("%w: set code action without code", ErrInvalidArgument)
	}
	if err := c.WriteUint(uint64(s.opcodes.ActionSetCode), s.basicOpBits); err != nil {
		return err
	}
	return c.AddRef(a.NewCode)
}

func (a AddExtension) write(c *boc.Cell, s revision) error {
	if err := c.WriteUint(uint64(s.opcodes.ActionExtendedAddExtension), s.extendedOpBits); err != nil {
		return err
	}
	return writeAddress(c, a.Address)
}

func (a RemoveExtension) write(c *boc.Cell, s revision) error {
	if err := c.WriteUint(uint64(s.opcodes.ActionExtendedRemoveExtension), s.extendedOpBits); err != nil {
		return err
	}
	return writeAddress(c, a.Address)
}

func (a SetSignatureAuthAllowed) write(c *boc.Cell, s revision) error {
	if err := c.WriteUint(uint64(s.opcodes.ActionExtendedSetSignatureAuth), s.extendedOpBits); err != nil {
		return err
	}
	return c.WriteBit(a.Allowed)
}

// EncodeAction encodes a single action. A basic action is returned as a one-element
// out-action list: a reference to the empty marker cell followed by the action itself.
func (v Version) EncodeAction(a Action) (*boc.Cell, error) {
	s, err := v.revision()
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil action", ErrInvalidArgument)
	}
	c := boc.NewCell()
	if a.basic() {
		if err := c.AddRef(boc.NewCell()); err != nil {
			return nil, err
		}
	}
	if err := a.write(c, s); err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeAction is the inverse of EncodeAction.
func (v Version) DecodeAction(c *boc.Cell) (Action, error) {
	s, err := v.revision()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: nil cell", ErrInvalidArgument)
	}
	c.ResetCounters()
	if a, ok, err := readExtendedAction(c, s); err != nil || ok {
		return a, err
	}
	c.ResetCounters()
	if _, err := c.NextRef(); err != nil {
		return nil, fmt.Errorf("basic action without list link: %w", err)
	}
	return readBasicAction(c, s)
}

func readBasicAction(c *boc.Cell, s revision) (Action, error) {
	op, err := c.ReadUint(s.basicOpBits)
	if err != nil {
		return nil, err
	}
	switch uint32(op) {
	case s.opcodes.ActionSendMsg:
		mode, err := c.ReadUint(8)
		if err != nil {
			return nil, err
		}
		msg, err := c.NextRef()
		if err != nil {
			return nil, err
		}
		return SendMessage{Mode: uint8(mode), Message: msg}, nil
	case s.opcodes.ActionSetCode:
		code, err := c.NextRef()
		if err != nil {
			return nil, err
		}
		return SetCode{NewCode: code}, nil
	}
	return nil, fmt.Errorf("unknown action opcode %#x", op)
}

// readExtendedAction reports ok=false without error when the prefix is not an extended opcode.
func readExtendedAction(c *boc.Cell, s revision) (Action, bool, error) {
	if c.BitsAvailableForRead() < s.extendedOpBits {
		return nil, false, nil
	}
	op, err := c.ReadUint(s.extendedOpBits)
	if err != nil {
		return nil, false, err
	}
	switch uint32(op) {
	case s.opcodes.ActionExtendedAddExtension:
		addr, err := readAddress(c)
		if err != nil {
			return nil, true, err
		}
		return AddExtension{Address: addr}, true, nil
	case s.opcodes.ActionExtendedRemoveExtension:
		addr, err := readAddress(c)
		if err != nil {
			return nil, true, err
		}
		return RemoveExtension{Address: addr}, true, nil
	case s.opcodes.ActionExtendedSetSignatureAuth:
		allowed, err := c.ReadBit()
		if err != nil {
			return nil, true, err
		}
		return SetSignatureAuthAllowed{Allowed: allowed}, true, nil
	}
	return nil, false, nil
}

func writeAddress(c *boc.Cell, id ton.AccountID) error {
	addr := id.ToMsgAddress()
	return tlb.Marshal(c, &addr)
}

func readAddress(c *boc.Cell) (ton.AccountID, error) {
	var addr tlb.MsgAddress
	if err := tlb.Unmarshal(c, &addr); err != nil {
		return ton.AccountID{}, err
	}
	id, err := ton.AccountIDFromTlb(addr)
	if err != nil {
		return ton.AccountID{}, err
	}
	if id == nil {
		return ton.AccountID{}, errors.New("extension address is none")
	}
	return *id, nil
}

// writeInnerRequest writes
// out_actions:(Maybe ^OutList) has_other_actions:(## 1) other_actions:ExtendedActions.
// The contract runs extended actions first and sends messages afterwards, so an extended
// action listed after a basic one can not be represented.
func writeInnerRequest(c *boc.Cell, s revision, actions []Action) error {
	var basic, extended []Action
	for i, a := range actions {
		if a == nil {
			return fmt.Errorf("%w: nil action", ErrInvalidArgument)
		}
		if a.basic() {
			basic = append(basic, a)
			continue
		}
		if len(basic) > 0 {
			return fmt.Errorf("%w: action %d must precede sent messages and code updates", ErrInvalidArgument, i)
		}
		extended = append(extended, a)
	}
	if len(basic) > MaxBasicActions {
		return fmt.Errorf("%w: max %d messages can be sent at once", ErrInvalidArgument, MaxBasicActions)
	}
	// the out list always starts from the empty marker cell
	list := boc.NewCell()
	for _, a := range basic {
		node := boc.NewCell()
		if err := node.AddRef(list); err != nil {
			return err
		}
		if err := a.write(node, s); err != nil {
			return err
		}
		list = node
	}
	if err := c.WriteBit(true); err != nil {
		return err
	}
	if err := c.AddRef(list); err != nil {
		return err
	}
	if len(extended) == 0 {
		return c.WriteBit(false)
	}
	if err := c.WriteBit(true); err != nil {
		return err
	}
	// the first extended action is stored inline, every next one in a reference of the previous
	var next *boc.Cell
	for i := len(extended) - 1; i > 0; i-- {
		node := boc.NewCell()
		if err := extended[i].write(node, s); err != nil {
			return err
		}
		if next != nil {
			if err := node.AddRef(next); err != nil {
				return err
			}
		}
		next = node
	}
	if err := extended[0].write(c, s); err != nil {
		return err
	}
	if next != nil {
		return c.AddRef(next)
	}
	return nil
}

// readInnerRequest returns actions in execution order: extended actions, then the out list.
func readInnerRequest(c *boc.Cell, s revision) ([]Action, error) {
	var basic []Action
	hasOut, err := c.ReadBit()
	if err != nil {
		return nil, err
	}
	if hasOut {
		node, err := c.NextRef()
		if err != nil {
			return nil, err
		}
		node.ResetCounters()
		var reversed []Action
		for node.BitsAvailableForRead() > 0 || node.RefsAvailableForRead() > 0 {
			if len(reversed) > MaxBasicActions {
				return nil, errors.New("out action list is too long")
			}
			prev, err := node.NextRef()
			if err != nil {
				return nil, err
			}
			a, err := readBasicAction(node, s)
			if err != nil {
				return nil, err
			}
			reversed = append(reversed, a)
			prev.ResetCounters()
			node = prev
		}
		for i := len(reversed) - 1; i >= 0; i-- {
			basic = append(basic, reversed[i])
		}
	}
	hasOther, err := c.ReadBit()
	if err != nil {
		return nil, err
	}
	var actions []Action
	for cur := c; hasOther; {
		a, ok, err := readExtendedAction(cur, s)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("unknown extended action")
		}
		actions = append(actions, a)
		if cur.RefsAvailableForRead() == 0 {
			break
		}
		if cur, err = cur.NextRef(); err != nil {
			return nil, err
		}
		cur.ResetCounters()
	}
	return append(actions, basic...), nil
}

// DecodeInnerRequest decodes an action list written by a signing message.
func (v Version) DecodeInnerRequest(c *boc.Cell) ([]Action, error) {
	s, err := v.revision()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: nil cell", ErrInvalidArgument)
	}
	return readInnerRequest(c, s)
}
