package cpu

// execute dispatches a resolved instruction to its semantic handler.
// The switch is exhaustive over the Mnemonic set; an error only ever
// means a handler asked the operand for a kind it was not resolved as,
// which is a defect in the opcode table.
func (c *CPU) execute(op Mnemonic, d Operand) error {
	switch op {
	case ADC:
		c.addCarry(c.operandValue(d))
	case SBC:
		// Subtraction is addition of the one's complement: the carry-in
		// then acts as "no borrow".
		c.addCarry(^c.operandValue(d))

	case AND:
		c.Reg.A &= c.operandValue(d)
		c.Flags.SetZeroNegative(c.Reg.A)
	case EOR:
		c.Reg.A ^= c.operandValue(d)
		c.Flags.SetZeroNegative(c.Reg.A)
	case ORA:
		c.Reg.A |= c.operandValue(d)
		c.Flags.SetZeroNegative(c.Reg.A)

	case ASL:
		c.readModifyWrite(d, func(v byte) byte {
			c.Flags.Carry = v&0x80 != 0
			return v << 1
		})
	case LSR:
		c.readModifyWrite(d, func(v byte) byte {
			c.Flags.Carry = v&0x01 != 0
			return v >> 1
		})
	case ROL:
		c.readModifyWrite(d, func(v byte) byte {
			carryIn := c.Flags.Carry
			c.Flags.Carry = v&0x80 != 0
			v <<= 1
			if carryIn {
				v |= 0x01
			}
			return v
		})
	case ROR:
		c.readModifyWrite(d, func(v byte) byte {
			carryIn := c.Flags.Carry
			c.Flags.Carry = v&0x01 != 0
			v >>= 1
			if carryIn {
				v |= 0x80
			}
			return v
		})

	case INC:
		return c.modifyMemory(d, func(v byte) byte { return v + 1 })
	case DEC:
		return c.modifyMemory(d, func(v byte) byte { return v - 1 })
	case INX:
		c.Reg.X++
		c.Flags.SetZeroNegative(c.Reg.X)
	case INY:
		c.Reg.Y++
		c.Flags.SetZeroNegative(c.Reg.Y)
	case DEX:
		c.Reg.X--
		c.Flags.SetZeroNegative(c.Reg.X)
	case DEY:
		c.Reg.Y--
		c.Flags.SetZeroNegative(c.Reg.Y)

	case LDA:
		c.Reg.A = c.operandValue(d)
		c.Flags.SetZeroNegative(c.Reg.A)
	case LDX:
		c.Reg.X = c.operandValue(d)
		c.Flags.SetZeroNegative(c.Reg.X)
	case LDY:
		c.Reg.Y = c.operandValue(d)
		c.Flags.SetZeroNegative(c.Reg.Y)

	case STA:
		return c.store(d, c.Reg.A)
	case STX:
		return c.store(d, c.Reg.X)
	case STY:
		return c.store(d, c.Reg.Y)

	case TAX:
		c.Reg.X = c.Reg.A
		c.Flags.SetZeroNegative(c.Reg.X)
	case TAY:
		c.Reg.Y = c.Reg.A
		c.Flags.SetZeroNegative(c.Reg.Y)
	case TSX:
		c.Reg.X = c.Reg.SP
		c.Flags.SetZeroNegative(c.Reg.X)
	case TXA:
		c.Reg.A = c.Reg.X
		c.Flags.SetZeroNegative(c.Reg.A)
	case TYA:
		c.Reg.A = c.Reg.Y
		c.Flags.SetZeroNegative(c.Reg.A)
	case TXS:
		// The only transfer with no flag side effect.
		c.Reg.SP = c.Reg.X

	case PHA:
		c.push(c.Reg.A)
	case PLA:
		c.Reg.A = c.pop()
		c.Flags.SetZeroNegative(c.Reg.A)
	case PHP:
		// Pushed status always carries B and the unused bit set.
		c.push(c.Flags.Byte() | flagBreak | flagUnused)
	case PLP:
		// B and the unused bit never round-trip through the stack.
		c.Flags = FlagsFromByte(c.pop() &^ (flagBreak | flagUnused))

	case CMP:
		c.compare(c.Reg.A, c.operandValue(d))
	case CPX:
		c.compare(c.Reg.X, c.operandValue(d))
	case CPY:
		c.compare(c.Reg.Y, c.operandValue(d))

	case BIT:
		v := c.operandValue(d)
		c.Flags.Zero = c.Reg.A&v == 0
		c.Flags.Negative = v&0x80 != 0
		c.Flags.Overflow = v&0x40 != 0

	case BCC:
		c.branch(int8(c.operandValue(d)), !c.Flags.Carry)
	case BCS:
		c.branch(int8(c.operandValue(d)), c.Flags.Carry)
	case BNE:
		c.branch(int8(c.operandValue(d)), !c.Flags.Zero)
	case BEQ:
		c.branch(int8(c.operandValue(d)), c.Flags.Zero)
	case BPL:
		c.branch(int8(c.operandValue(d)), !c.Flags.Negative)
	case BMI:
		c.branch(int8(c.operandValue(d)), c.Flags.Negative)
	case BVC:
		c.branch(int8(c.operandValue(d)), !c.Flags.Overflow)
	case BVS:
		c.branch(int8(c.operandValue(d)), c.Flags.Overflow)

	case JMP:
		target, err := d.Address()
		if err != nil {
			return err
		}
		c.PC = target - 1
	case JSR:
		target, err := d.Address()
		if err != nil {
			return err
		}
		c.push16(c.PC + 1)
		c.PC = target - 1
	case RTS:
		c.PC = c.pop16() - 1
	case RTI:
		// Interrupt vectors are not serviced; nothing to return from.

	case CLC:
		c.Flags.Carry = false
	case SEC:
		c.Flags.Carry = true
	case CLD:
		c.Flags.Decimal = false
	case SED:
		c.Flags.Decimal = true
	case CLI:
		c.Flags.InterruptDisable = false
	case SEI:
		c.Flags.InterruptDisable = true
	case CLV:
		c.Flags.Overflow = false

	case NOP:

	case BRK:
		c.Halted = true
	}
	return nil
}

// addCarry implements the shared ADC/SBC core: a 9-bit intermediate sum
// whose high bit is the carry-out, with signed overflow detected by the
// sign-bit test (v ^ result) & (a ^ result) & 0x80.
func (c *CPU) addCarry(v byte) {
	sum := uint16(c.Reg.A) + uint16(v)
	if c.Flags.Carry {
		sum++
	}
	result := byte(sum)

	c.Flags.Carry = sum > 0xFF
	c.Flags.Overflow = (v^result)&(c.Reg.A^result)&0x80 != 0
	c.Flags.SetZeroNegative(result)
	c.Reg.A = result
}

// compare sets the three-way compare flags: Z for equality, C for "no
// borrow" (reg >= v), N from the high bit of the wrapping subtraction.
func (c *CPU) compare(reg, v byte) {
	c.Flags.Zero = reg == v
	c.Flags.Carry = reg >= v
	c.Flags.Negative = (reg-v)&0x80 != 0
}

// readModifyWrite applies f to the addressed operand and writes the
// result back, or to the accumulator in accumulator mode. Z and N come
// from the result; f sets carry itself.
func (c *CPU) readModifyWrite(d Operand, f func(byte) byte) {
	if d.kind == operandAddress {
		v := f(c.Bus.ReadByte(d.val))
		c.Bus.WriteByte(d.val, v)
		c.Flags.SetZeroNegative(v)
		return
	}
	c.Reg.A = f(c.Reg.A)
	c.Flags.SetZeroNegative(c.Reg.A)
}

// modifyMemory applies f to the addressed byte in place (INC/DEC).
// Carry and overflow do not participate.
func (c *CPU) modifyMemory(d Operand, f func(byte) byte) error {
	addr, err := d.Address()
	if err != nil {
		return err
	}
	v := f(c.Bus.ReadByte(addr))
	c.Bus.WriteByte(addr, v)
	c.Flags.SetZeroNegative(v)
	return nil
}

func (c *CPU) store(d Operand, v byte) error {
	addr, err := d.Address()
	if err != nil {
		return err
	}
	c.Bus.WriteByte(addr, v)
	return nil
}
