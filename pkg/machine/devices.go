package machine

import (
	"math/rand"

	"go6502/pkg/cpu"
)

// Keyboard buffers key bytes and feeds them to the input latch one per
// step. Zero never reaches the latch; programs treat it as "no key".
type Keyboard struct {
	buffer []byte
}

func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

func (k *Keyboard) Push(b byte) {
	if b == 0 {
		return
	}
	k.buffer = append(k.buffer, b)
}

func (k *Keyboard) Step(c *cpu.CPU) {
	if len(k.buffer) == 0 {
		return
	}
	b := k.buffer[0]
	k.buffer = k.buffer[1:]
	c.Bus.WriteByte(InputAddr, b)
}

// Random writes a fresh value in [1,15] to the random-source address
// every step. Programs poll the address instead of calling anything.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Step(c *cpu.CPU) {
	c.Bus.WriteByte(RandomAddr, byte(1+r.rng.Intn(15)))
}
