package cpu

// Bus is the memory contract the CPU drives. Every 16-bit address is
// valid; any memory-mapped meaning (a video window, an input latch) is a
// convention the embedding layer imposes by choosing which addresses it
// touches between steps, not something the bus knows about.
type Bus interface {
	ReadByte(addr uint16) byte
	WriteByte(addr uint16, val byte)

	// Tick accumulates elapsed cycles. The CPU calls it everywhere real
	// hardware would spend time: the base cost of each instruction, page
	// crossings, taken branches.
	Tick(cycles int)
}

// RAM is a flat 64 KiB byte space with a cycle counter. The array spans
// the full range of a uint16, so no address can be out of bounds.
type RAM struct {
	Data   [0x10000]byte
	Cycles uint64
}

func NewRAM() *RAM {
	return &RAM{}
}

func (r *RAM) ReadByte(addr uint16) byte {
	return r.Data[addr]
}

func (r *RAM) WriteByte(addr uint16, val byte) {
	r.Data[addr] = val
}

func (r *RAM) Tick(cycles int) {
	r.Cycles += uint64(cycles)
}
