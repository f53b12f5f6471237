package machine

import (
	"testing"

	"go6502/pkg/asm"
	"go6502/pkg/cpu"
)

func load(t *testing.T, m *Machine, source string) {
	t.Helper()
	code, origin, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if err := m.Load(code, origin); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestKeyboardFeedsInputLatch(t *testing.T) {
	m := New()
	kb := NewKeyboard()
	m.Attach(kb)
	kb.Push('w')
	kb.Push(0) // dropped
	kb.Push('d')

	load(t, m, `
		NOP
		LDA $FF
		STA $10
		LDA $FF
		STA $11
		BRK
`)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.RAM.Data[0x10] != 'w' {
		t.Errorf("first key: expected 'w', got 0x%02X", m.RAM.Data[0x10])
	}
	if m.RAM.Data[0x11] != 'd' {
		t.Errorf("second key: expected 'd', got 0x%02X", m.RAM.Data[0x11])
	}
}

func TestRandomDeviceRange(t *testing.T) {
	m := New()
	m.Attach(NewRandom(1))
	load(t, m, `
		NOP
		NOP
		NOP
		BRK
`)
	seen := map[byte]bool{}
	m.CPU.Run(func(c *cpu.CPU) {
		m.StepDevices()
		seen[c.Bus.ReadByte(RandomAddr)] = true
	})
	for v := range seen {
		if v < 1 || v > 15 {
			t.Errorf("random byte 0x%02X out of [1,15]", v)
		}
	}
	if len(seen) == 0 {
		t.Error("random device never wrote")
	}
}

func TestFramebufferDecode(t *testing.T) {
	m := New()
	load(t, m, `
		LDA #$01
		STA $0200
		LDA #$03
		STA $05FF
		BRK
`)
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	fb := NewFramebuffer()
	pix, changed := fb.Snapshot(m.CPU)
	if !changed {
		t.Fatal("first snapshot of a written frame must report a change")
	}
	if pix[0] != 0xFF || pix[1] != 0xFF || pix[2] != 0xFF {
		t.Errorf("pixel 0 should be white, got %v", pix[:4])
	}
	last := (FrameWidth*FrameHeight - 1) * 4
	if pix[last] != 0xFF || pix[last+1] != 0x00 || pix[last+2] != 0x00 {
		t.Errorf("last pixel should be red, got %v", pix[last:last+4])
	}

	if _, changed := fb.Snapshot(m.CPU); changed {
		t.Error("unchanged frame must not report a change")
	}

	img := fb.Image(m.CPU)
	if img.Bounds().Dx() != FrameWidth || img.Bounds().Dy() != FrameHeight {
		t.Errorf("unexpected image bounds %v", img.Bounds())
	}
}

func TestColorClamp(t *testing.T) {
	if Color(200) != Color(15) {
		t.Error("out-of-palette bytes clamp to the last entry")
	}
}

func TestMachineRunsGameLoop(t *testing.T) {
	// A tiny loop that copies the random source to the framebuffer
	// until a key arrives.
	m := New()
	kb := NewKeyboard()
	m.Attach(NewRandom(7))
	m.Attach(kb)
	load(t, m, `
loop:	LDA $FE
		STA $0200
		LDA $FF
		BEQ loop
		BRK
`)
	steps := 0
	err := m.CPU.Run(func(c *cpu.CPU) {
		m.StepDevices()
		steps++
		if steps == 50 {
			kb.Push('q')
		}
		if steps > 10000 {
			t.Fatal("program never saw the key press")
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	v := m.RAM.Data[0x0200]
	if v < 1 || v > 15 {
		t.Errorf("framebuffer byte 0x%02X out of random range", v)
	}
}
