package cpu

import "fmt"

// AddrMode selects how an instruction's operand bytes are interpreted.
type AddrMode int

const (
	Implied AddrMode = iota
	Accumulator
	Immediate
	Relative
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
)

var addrModeNames = [...]string{
	Implied:     "implied",
	Accumulator: "accumulator",
	Immediate:   "immediate",
	Relative:    "relative",
	ZeroPage:    "zeropage",
	ZeroPageX:   "zeropage,X",
	ZeroPageY:   "zeropage,Y",
	Absolute:    "absolute",
	AbsoluteX:   "absolute,X",
	AbsoluteY:   "absolute,Y",
	Indirect:    "indirect",
	IndirectX:   "(indirect,X)",
	IndirectY:   "(indirect),Y",
}

func (m AddrMode) String() string {
	if int(m) < len(addrModeNames) {
		return addrModeNames[m]
	}
	return fmt.Sprintf("AddrMode(%d)", int(m))
}

type operandKind int

const (
	operandImmediate operandKind = iota
	operandAddress
)

// Operand is the transient result of resolving an addressing mode:
// either an immediate byte or a resolved 16-bit address. It is produced
// once per instruction and consumed by exactly one handler.
type Operand struct {
	kind operandKind
	val  uint16
}

func immediate(v byte) Operand {
	return Operand{kind: operandImmediate, val: uint16(v)}
}

func address(a uint16) Operand {
	return Operand{kind: operandAddress, val: a}
}

// Address unwraps the operand as an effective address. An immediate
// operand here means the opcode table pairs a handler with a mode it
// cannot serve; that is a table-authoring defect, not a runtime
// condition, so it surfaces as an error rather than a guess.
func (o Operand) Address() (uint16, error) {
	if o.kind != operandAddress {
		return 0, ErrBadOperand
	}
	return o.val, nil
}

func joinBytes(lo, hi byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// pageCrossed reports whether two addresses fall in different 256-byte
// pages. Indexed addressing and taken branches cost one extra cycle
// when they cross a page.
func pageCrossed(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// operandValue reads the operand as a byte, going through the bus when
// the operand is an address.
func (c *CPU) operandValue(o Operand) byte {
	if o.kind == operandImmediate {
		return byte(o.val)
	}
	return c.Bus.ReadByte(o.val)
}

// resolve consumes operand bytes at the program counter and computes
// the effective operand for mode. The second result reports whether an
// indexed address computation crossed a page.
func (c *CPU) resolve(mode AddrMode) (Operand, bool, error) {
	switch mode {
	case Implied:
		return address(0x00), false, nil

	case Accumulator:
		return immediate(c.Reg.A), false, nil

	case Immediate, Relative:
		return immediate(c.fetchByte()), false, nil

	case ZeroPage:
		return address(uint16(c.fetchByte())), false, nil

	case ZeroPageX:
		// Indexing wraps within page zero.
		return address(uint16(c.fetchByte() + c.Reg.X)), false, nil

	case ZeroPageY:
		return address(uint16(c.fetchByte() + c.Reg.Y)), false, nil

	case Absolute:
		return address(c.fetchWord()), false, nil

	case AbsoluteX:
		base := c.fetchWord()
		addr := base + uint16(c.Reg.X)
		return address(addr), pageCrossed(base, addr), nil

	case AbsoluteY:
		base := c.fetchWord()
		addr := base + uint16(c.Reg.Y)
		return address(addr), pageCrossed(base, addr), nil

	case Indirect:
		ptr := c.fetchWord()
		lo := c.Bus.ReadByte(ptr)
		hi := c.Bus.ReadByte(ptr + 1)
		return address(joinBytes(lo, hi)), false, nil

	case IndirectX:
		zp := c.fetchByte() + c.Reg.X
		lo := c.Bus.ReadByte(uint16(zp))
		hi := c.Bus.ReadByte(uint16(zp + 1))
		return address(joinBytes(lo, hi)), false, nil

	case IndirectY:
		zp := c.fetchByte()
		lo := c.Bus.ReadByte(uint16(zp))
		hi := c.Bus.ReadByte(uint16(zp + 1))
		base := joinBytes(lo, hi)
		addr := base + uint16(c.Reg.Y)
		return address(addr), pageCrossed(base, addr), nil
	}

	return Operand{}, false, fmt.Errorf("resolve %v: %w", mode, ErrBadOperand)
}
