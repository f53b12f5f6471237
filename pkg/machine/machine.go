// Package machine wraps the CPU core with a small console's memory-map
// conventions: an input latch, a random-number source and a 32x32
// framebuffer window. None of these are core features — devices
// interact with the emulated program purely by reading and writing
// well-known bus addresses between instructions.
package machine

import "go6502/pkg/cpu"

// Conventional addresses. The core treats them like any other memory;
// only the devices below give them meaning.
const (
	InputAddr   uint16 = 0x00FF
	RandomAddr  uint16 = 0x00FE
	FrameStart  uint16 = 0x0200
	FrameEnd    uint16 = 0x0600
	FrameWidth         = 32
	FrameHeight        = 32
)

// Device is polled once per executed instruction, between steps. A
// device may freely touch bus memory; the core only reads it during the
// next fetch.
type Device interface {
	Step(c *cpu.CPU)
}

// Machine is a CPU wired to a RAM bus and a set of devices.
type Machine struct {
	CPU     *cpu.CPU
	RAM     *cpu.RAM
	Devices []Device
}

func New() *Machine {
	ram := cpu.NewRAM()
	return &Machine{
		CPU: cpu.New(ram),
		RAM: ram,
	}
}

func (m *Machine) Attach(d Device) {
	m.Devices = append(m.Devices, d)
}

// Load places a program image and resets the CPU.
func (m *Machine) Load(image []byte, origin uint16) error {
	return m.CPU.Load(image, origin)
}

// StepDevices polls every attached device once.
func (m *Machine) StepDevices() {
	for _, d := range m.Devices {
		d.Step(m.CPU)
	}
}

// Run executes until halt, polling devices after every instruction
// through the core's per-step callback seam.
func (m *Machine) Run() error {
	return m.CPU.Run(func(*cpu.CPU) {
		m.StepDevices()
	})
}
