package cpu

import "testing"

// resolveAt places operand bytes after an opcode slot at addr and
// resolves mode as the fetch loop would: PC sits on the opcode.
func resolveAt(t *testing.T, c *CPU, addr uint16, mode AddrMode, operandBytes ...byte) (Operand, bool) {
	t.Helper()
	for i, b := range operandBytes {
		c.Bus.WriteByte(addr+1+uint16(i), b)
	}
	c.PC = addr
	op, crossed, err := c.resolve(mode)
	if err != nil {
		t.Fatalf("resolve %v: %v", mode, err)
	}
	return op, crossed
}

func wantAddress(t *testing.T, op Operand, want uint16) {
	t.Helper()
	got, err := op.Address()
	if err != nil {
		t.Fatalf("expected an address operand: %v", err)
	}
	if got != want {
		t.Errorf("expected address 0x%04X, got 0x%04X", want, got)
	}
}

func TestPageCrossed(t *testing.T) {
	for _, a := range []uint16{0x0000, 0x00FF, 0x1234, 0xFFFF} {
		if pageCrossed(a, a) {
			t.Errorf("pageCrossed(0x%04X, 0x%04X): expected false", a, a)
		}
	}
	cases := []struct {
		a, b    uint16
		crossed bool
	}{
		{0x10FF, 0x1100, true},
		{0x1000, 0x10FF, false},
		{0x12F0, 0x1310, true},
		{0xFFFF, 0x0000, true},
	}
	for _, tc := range cases {
		if got := pageCrossed(tc.a, tc.b); got != tc.crossed {
			t.Errorf("pageCrossed(0x%04X, 0x%04X): expected %v, got %v", tc.a, tc.b, tc.crossed, got)
		}
	}
}

func TestResolveImmediate(t *testing.T) {
	c := New(NewRAM())
	op, crossed := resolveAt(t, c, 0x8000, Immediate, 0x42)
	if crossed {
		t.Error("immediate mode cannot cross a page")
	}
	if got := c.operandValue(op); got != 0x42 {
		t.Errorf("expected 0x42, got 0x%02X", got)
	}
	if _, err := op.Address(); err == nil {
		t.Error("address unwrap of an immediate should fail")
	}
	if c.PC != 0x8001 {
		t.Errorf("expected PC at last operand byte 0x8001, got 0x%04X", c.PC)
	}
}

func TestResolveAccumulator(t *testing.T) {
	c := New(NewRAM())
	c.Reg.A = 0x99
	op, _ := resolveAt(t, c, 0x8000, Accumulator)
	if got := c.operandValue(op); got != 0x99 {
		t.Errorf("expected accumulator value 0x99, got 0x%02X", got)
	}
	if c.PC != 0x8000 {
		t.Errorf("accumulator mode consumes no bytes, PC moved to 0x%04X", c.PC)
	}
}

func TestResolveZeroPage(t *testing.T) {
	c := New(NewRAM())
	op, _ := resolveAt(t, c, 0x8000, ZeroPage, 0x20)
	wantAddress(t, op, 0x0020)
}

func TestResolveZeroPageIndexedWraps(t *testing.T) {
	c := New(NewRAM())
	c.Reg.X = 0x10
	op, crossed := resolveAt(t, c, 0x8000, ZeroPageX, 0xFF)
	// 0xFF + 0x10 wraps within page zero, never into page one.
	wantAddress(t, op, 0x000F)
	if crossed {
		t.Error("zero page indexing never reports a page cross")
	}

	c.Reg.Y = 0x01
	op, _ = resolveAt(t, c, 0x8000, ZeroPageY, 0xFF)
	wantAddress(t, op, 0x0000)
}

func TestResolveAbsolute(t *testing.T) {
	c := New(NewRAM())
	op, _ := resolveAt(t, c, 0x8000, Absolute, 0x34, 0x12)
	wantAddress(t, op, 0x1234)
	if c.PC != 0x8002 {
		t.Errorf("expected PC 0x8002, got 0x%04X", c.PC)
	}
}

func TestResolveAbsoluteIndexed(t *testing.T) {
	c := New(NewRAM())
	c.Reg.X = 0x20
	op, crossed := resolveAt(t, c, 0x8000, AbsoluteX, 0xF0, 0x12)
	wantAddress(t, op, 0x1310)
	if !crossed {
		t.Error("0x12F0 + 0x20 crosses into page 0x13")
	}

	c.Reg.Y = 0x05
	op, crossed = resolveAt(t, c, 0x8000, AbsoluteY, 0x00, 0x12)
	wantAddress(t, op, 0x1205)
	if crossed {
		t.Error("0x1200 + 0x05 stays in page 0x12")
	}
}

func TestResolveAbsoluteIndexedWrapsAddressSpace(t *testing.T) {
	c := New(NewRAM())
	c.Reg.X = 0x10
	op, crossed := resolveAt(t, c, 0x8000, AbsoluteX, 0xFF, 0xFF)
	wantAddress(t, op, 0x000F)
	if !crossed {
		t.Error("wrapping past 0xFFFF is a page cross")
	}
}

func TestResolveIndirect(t *testing.T) {
	c := New(NewRAM())
	c.Bus.WriteByte(0x0120, 0xFC)
	c.Bus.WriteByte(0x0121, 0xBA)
	op, _ := resolveAt(t, c, 0x8000, Indirect, 0x20, 0x01)
	wantAddress(t, op, 0xBAFC)
}

func TestResolveIndirectX(t *testing.T) {
	c := New(NewRAM())
	c.Reg.X = 0x04
	c.Bus.WriteByte(0x0024, 0x74)
	c.Bus.WriteByte(0x0025, 0x20)
	op, _ := resolveAt(t, c, 0x8000, IndirectX, 0x20)
	wantAddress(t, op, 0x2074)
}

func TestResolveIndirectXPointerWraps(t *testing.T) {
	c := New(NewRAM())
	// 0xFE + 0x03 = 0x01; the high byte fetch at 0x02 also stays in
	// page zero.
	c.Reg.X = 0x03
	c.Bus.WriteByte(0x0001, 0xCD)
	c.Bus.WriteByte(0x0002, 0xAB)
	op, _ := resolveAt(t, c, 0x8000, IndirectX, 0xFE)
	wantAddress(t, op, 0xABCD)
}

func TestResolveIndirectY(t *testing.T) {
	c := New(NewRAM())
	c.Reg.Y = 0x10
	c.Bus.WriteByte(0x0086, 0x28)
	c.Bus.WriteByte(0x0087, 0x40)
	op, crossed := resolveAt(t, c, 0x8000, IndirectY, 0x86)
	wantAddress(t, op, 0x4038)
	if crossed {
		t.Error("0x4028 + 0x10 stays in page 0x40")
	}
}

func TestResolveIndirectYWrapAndCross(t *testing.T) {
	c := New(NewRAM())
	// Pointer at 0xFF: its high byte comes from 0x00, wrapped within
	// page zero.
	c.Bus.WriteByte(0x00FF, 0xF5)
	c.Bus.WriteByte(0x0000, 0x20)
	c.Reg.Y = 0x20
	op, crossed := resolveAt(t, c, 0x8000, IndirectY, 0xFF)
	wantAddress(t, op, 0x2115)
	if !crossed {
		t.Error("0x20F5 + 0x20 crosses into page 0x21")
	}
}

func TestResolveImplied(t *testing.T) {
	c := New(NewRAM())
	_, crossed := resolveAt(t, c, 0x8000, Implied)
	if crossed {
		t.Error("implied mode cannot cross a page")
	}
	if c.PC != 0x8000 {
		t.Errorf("implied mode consumes no bytes, PC moved to 0x%04X", c.PC)
	}
}
