package cpu

import (
	"errors"
	"fmt"
)

const (
	// StackPage is the fixed memory page the stack lives in. The stack
	// pointer is an offset into it and wraps within it.
	StackPage uint16 = 0x0100

	// ResetVector holds the entry point (low byte, high byte) that
	// Reset loads into the program counter.
	ResetVector uint16 = 0xFFFC

	// LoadOrigin is the conventional origin for program images.
	LoadOrigin uint16 = 0x8000

	// Power-on status: interrupt disable set, everything else clear.
	powerOnStatus = 0b00100100
	powerOnSP     = 0xFD
)

var (
	// ErrUnknownOpcode is returned by Step when the fetched opcode has
	// no entry in the instruction table. Execution must stop: running a
	// bogus handler against ill-defined operand data corrupts every
	// instruction after it.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrBadOperand flags a mismatched handler/addressing-mode pairing
	// in the opcode table, such as an address unwrap of an immediate.
	ErrBadOperand = errors.New("operand kind does not match instruction")

	// ErrImageTooLarge is returned by Load when an image does not fit
	// in the address space at the requested origin.
	ErrImageTooLarge = errors.New("image does not fit in memory")
)

// CPU is the 6502 core: the bus it exclusively owns, the register file,
// the status flags, the program counter and the halt state. Instruction
// handlers receive it mutably for the duration of one call and never
// retain it.
type CPU struct {
	Bus    Bus
	Reg    Registers
	Flags  Flags
	PC     uint16
	Halted bool
}

func New(bus Bus) *CPU {
	return &CPU{
		Bus:   bus,
		Reg:   Registers{SP: powerOnSP},
		Flags: FlagsFromByte(powerOnStatus),
	}
}

// Reset restores the power-on register and flag pattern and loads the
// program counter from the reset vector.
func (c *CPU) Reset() {
	c.Reg = Registers{SP: powerOnSP}
	c.Flags = FlagsFromByte(powerOnStatus)
	c.Halted = false
	c.PC = joinBytes(c.Bus.ReadByte(ResetVector), c.Bus.ReadByte(ResetVector+1))
}

// Load copies an image verbatim into memory at origin, points the reset
// vector at it and resets the CPU. When the image does not fit, nothing
// is written.
func (c *CPU) Load(image []byte, origin uint16) error {
	if int(origin)+len(image) > 0x10000 {
		return fmt.Errorf("%d bytes at 0x%04X: %w", len(image), origin, ErrImageTooLarge)
	}
	for i, b := range image {
		c.Bus.WriteByte(origin+uint16(i), b)
	}
	c.Bus.WriteByte(ResetVector, byte(origin))
	c.Bus.WriteByte(ResetVector+1, byte(origin>>8))
	c.Reset()
	return nil
}

// fetchByte consumes one operand byte: the program counter advances to
// it and it is read. Step's uniform post-increment then moves past the
// last byte consumed.
func (c *CPU) fetchByte() byte {
	c.PC++
	return c.Bus.ReadByte(c.PC)
}

// fetchWord consumes two operand bytes, low byte first.
func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return joinBytes(lo, hi)
}

// push writes a byte to the stack page at SP and decrements SP,
// wrapping within the page.
func (c *CPU) push(v byte) {
	c.Bus.WriteByte(StackPage|uint16(c.Reg.SP), v)
	c.Reg.SP--
}

// push16 pushes high byte then low byte, the exact inverse of pop16.
func (c *CPU) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

// pop increments SP, wrapping within the page, and reads.
func (c *CPU) pop() byte {
	c.Reg.SP++
	return c.Bus.ReadByte(StackPage | uint16(c.Reg.SP))
}

func (c *CPU) pop16() uint16 {
	lo := c.pop()
	hi := c.pop()
	return joinBytes(lo, hi)
}

// branch applies a signed displacement when taken. The displacement is
// relative to the instruction after the branch; a taken branch costs
// one extra cycle and one more when it lands in a different page. The
// program counter is left at target-1 so the post-increment lands
// exactly on the target.
func (c *CPU) branch(offset int8, taken bool) {
	if !taken {
		return
	}
	c.Bus.Tick(1)
	next := c.PC + 1
	target := next + uint16(int16(offset))
	if pageCrossed(next, target) {
		c.Bus.Tick(1)
	}
	c.PC = target - 1
}

// Step runs one fetch-decode-execute cycle: fetch the opcode, look up
// its descriptor, resolve the addressing mode (consuming operand
// bytes), charge cycles, run the handler, then advance the program
// counter past the instruction. Control-transfer handlers pre-compensate
// for the final increment by setting the program counter to target-1.
//
// A failed Step terminates emulation having mutated nothing beyond the
// opcode fetch.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}

	opcode := c.Bus.ReadByte(c.PC)
	in, ok := opcodes[opcode]
	if !ok {
		return fmt.Errorf("opcode 0x%02X at 0x%04X: %w", opcode, c.PC, ErrUnknownOpcode)
	}

	operand, crossed, err := c.resolve(in.mode)
	if err != nil {
		return fmt.Errorf("%v: %w", in.op, err)
	}

	c.Bus.Tick(in.cycles)
	if crossed {
		c.Bus.Tick(1)
	}

	if err := c.execute(in.op, operand); err != nil {
		return fmt.Errorf("%v at 0x%04X: %w", in.op, c.PC, err)
	}

	c.PC++
	return nil
}

// Run steps the CPU until it halts, invoking callback after every
// completed instruction. The callback is the only seam through which an
// embedding layer observes and drives the machine: it may read and
// write bus memory freely, since the core only touches the bus during
// the next Step.
func (c *CPU) Run(callback func(*CPU)) error {
	for !c.Halted {
		if err := c.Step(); err != nil {
			return err
		}
		callback(c)
	}
	return nil
}
