package cpu

// Registers is the 6502 register file. Everything here is 8-bit and all
// arithmetic on it wraps modulo 256; only the program counter (owned by
// CPU) and effective addresses are 16-bit.
type Registers struct {
	A  byte // accumulator
	X  byte // X index
	Y  byte // Y index
	SP byte // stack pointer, an offset into the stack page
}

// Status byte layout, bit 0 (LSB) to bit 7: C Z I D B (1) V N.
// Bit 5 is unused and always reads as 1.
const (
	flagCarry byte = 1 << iota
	flagZero
	flagInterrupt
	flagDecimal
	flagBreak
	flagUnused
	flagOverflow
	flagNegative
)

// Flags holds the seven processor status bits unpacked.
type Flags struct {
	Carry            bool
	Zero             bool
	InterruptDisable bool
	Decimal          bool
	Break            bool
	Overflow         bool
	Negative         bool
}

// Reset clears all seven flags.
func (f *Flags) Reset() {
	*f = Flags{}
}

// SetZeroNegative updates Z and N from a result byte. Nearly every
// data-producing instruction routes through here.
func (f *Flags) SetZeroNegative(v byte) {
	f.Zero = v == 0
	f.Negative = v&0x80 != 0
}

// Byte packs the flags into a status byte. The unused bit is forced to 1.
func (f Flags) Byte() byte {
	b := flagUnused
	if f.Carry {
		b |= flagCarry
	}
	if f.Zero {
		b |= flagZero
	}
	if f.InterruptDisable {
		b |= flagInterrupt
	}
	if f.Decimal {
		b |= flagDecimal
	}
	if f.Break {
		b |= flagBreak
	}
	if f.Overflow {
		b |= flagOverflow
	}
	if f.Negative {
		b |= flagNegative
	}
	return b
}

// FlagsFromByte unpacks a status byte. The unused bit is ignored.
func FlagsFromByte(b byte) Flags {
	return Flags{
		Carry:            b&flagCarry != 0,
		Zero:             b&flagZero != 0,
		InterruptDisable: b&flagInterrupt != 0,
		Decimal:          b&flagDecimal != 0,
		Break:            b&flagBreak != 0,
		Overflow:         b&flagOverflow != 0,
		Negative:         b&flagNegative != 0,
	}
}
