package cpu

import (
	"errors"
	"testing"
)

func TestEndToEnd(t *testing.T) {
	c, ram := testCPU(t,
		0xA9, 0x10, // LDA #$10
		0x85, 0x20, // STA $20
		0xA9, 0x01, // LDA #$01
		0x65, 0x20, // ADC $20
		0x85, 0x21, // STA $21
		0xE6, 0x21, // INC $21
		0xA4, 0x21, // LDY $21
		0xC8, // INY
		0x00, // BRK
	)
	runToHalt(t, c)

	if ram.Data[0x20] != 0x10 {
		t.Errorf("expected $20=0x10, got 0x%02X", ram.Data[0x20])
	}
	if ram.Data[0x21] != 0x12 {
		t.Errorf("expected $21=0x12, got 0x%02X", ram.Data[0x21])
	}
	if c.Reg.A != 0x11 {
		t.Errorf("expected A=0x11, got 0x%02X", c.Reg.A)
	}
	if c.Reg.Y != 0x13 {
		t.Errorf("expected Y=0x13, got 0x%02X", c.Reg.Y)
	}
}

func TestLoadWritesResetVector(t *testing.T) {
	ram := NewRAM()
	c := New(ram)
	if err := c.Load([]byte{0x00}, 0x1234); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ram.Data[ResetVector] != 0x34 || ram.Data[ResetVector+1] != 0x12 {
		t.Errorf("reset vector: got %02X %02X", ram.Data[ResetVector], ram.Data[ResetVector+1])
	}
	if c.PC != 0x1234 {
		t.Errorf("expected PC=0x1234 after load, got 0x%04X", c.PC)
	}
}

func TestLoadTooLarge(t *testing.T) {
	ram := NewRAM()
	c := New(ram)
	err := c.Load(make([]byte, 0x9000), 0x8000)
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	// No partial write.
	for addr := 0x8000; addr < 0x10000; addr++ {
		if ram.Data[addr] != 0 {
			t.Fatalf("memory written at 0x%04X despite failed load", addr)
		}
	}
}

func TestResetRestoresPowerOnState(t *testing.T) {
	c, _ := testCPU(t,
		0xA9, 0x55, // LDA #$55
		0xAA, // TAX
		0x38, // SEC
		0x00, // BRK
	)
	runToHalt(t, c)

	c.Reset()
	if c.Reg.A != 0 || c.Reg.X != 0 || c.Reg.Y != 0 {
		t.Errorf("registers not cleared: A=%02X X=%02X Y=%02X", c.Reg.A, c.Reg.X, c.Reg.Y)
	}
	if c.Reg.SP != powerOnSP {
		t.Errorf("expected SP=0x%02X, got 0x%02X", powerOnSP, c.Reg.SP)
	}
	if c.Flags.Carry || !c.Flags.InterruptDisable {
		t.Errorf("power-on flags: %08b", c.Flags.Byte())
	}
	if c.Halted {
		t.Error("reset must clear the halt state")
	}
	if c.PC != LoadOrigin {
		t.Errorf("PC must come from the reset vector, got 0x%04X", c.PC)
	}
}

func TestUnknownOpcodeStopsCleanly(t *testing.T) {
	// 0x02 has no table entry. Stepping it must fail and mutate nothing
	// beyond the fetch.
	c, ram := testCPU(t, 0x02)
	regBefore := c.Reg
	flagsBefore := c.Flags
	memBefore := ram.Data

	err := c.Step()
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
	if c.Reg != regBefore || c.Flags != flagsBefore {
		t.Error("registers or flags mutated by an unresolved opcode")
	}
	if ram.Data != memBefore {
		t.Error("memory mutated by an unresolved opcode")
	}

	// Run surfaces the same failure to its caller.
	c, _ = testCPU(t, 0x02)
	if err := c.Run(func(*CPU) {}); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode from Run, got %v", err)
	}
}

func TestRunCallbackPerStep(t *testing.T) {
	c, _ := testCPU(t,
		0xEA, // NOP
		0xEA, // NOP
		0x00, // BRK
	)
	steps := 0
	if err := c.Run(func(cb *CPU) {
		if cb != c {
			t.Fatal("callback must receive the running core")
		}
		steps++
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if steps != 3 {
		t.Errorf("expected 3 callback invocations, got %d", steps)
	}
}

func TestCallbackCanDriveBusBetweenSteps(t *testing.T) {
	// The embedding layer pokes an input byte between steps; the next
	// instruction observes it.
	c, _ := testCPU(t,
		0xEA,       // NOP
		0xA5, 0xFF, // LDA $FF
		0x00, // BRK
	)
	poked := false
	if err := c.Run(func(cb *CPU) {
		if !poked {
			cb.Bus.WriteByte(0x00FF, 0x77)
			poked = true
		}
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.Reg.A != 0x77 {
		t.Errorf("expected A=0x77 from the poked latch, got 0x%02X", c.Reg.A)
	}
}

func TestStepWhileHalted(t *testing.T) {
	c, ram := testCPU(t, 0x00) // BRK
	runToHalt(t, c)
	pc := c.PC
	cycles := ram.Cycles
	if err := c.Step(); err != nil {
		t.Fatalf("step while halted: %v", err)
	}
	if c.PC != pc || ram.Cycles != cycles {
		t.Error("a halted CPU must not dispatch instructions")
	}
}

func TestBaseCycleAccounting(t *testing.T) {
	c, ram := testCPU(t,
		0xA9, 0x01, // LDA #$01, 2 cycles
		0x85, 0x20, // STA $20, 3 cycles
		0x00, // BRK, 7 cycles
	)
	runToHalt(t, c)
	if ram.Cycles != 12 {
		t.Errorf("expected 12 cycles, got %d", ram.Cycles)
	}
}

func TestIndexedReadPageCrossPenalty(t *testing.T) {
	c, ram := testCPU(t,
		0xA2, 0x10, // LDX #$10
		0xBD, 0xF8, 0x20, // LDA $20F8,X -> 0x2108, crosses
		0x00, // BRK
	)
	stepOK(t, c)
	before := ram.Cycles
	stepOK(t, c)
	if got := ram.Cycles - before; got != 5 {
		t.Errorf("LDA abs,X with page cross: expected 5 cycles, got %d", got)
	}
}
