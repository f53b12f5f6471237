package machine

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"go6502/pkg/cpu"
)

// palette is the 16-color lookup: each framebuffer byte indexes into it
// modulo the repeating upper half.
var palette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF}, // 0 black
	{0xFF, 0xFF, 0xFF, 0xFF}, // 1 white
	{0x80, 0x80, 0x80, 0xFF}, // 2 grey
	{0xFF, 0x00, 0x00, 0xFF}, // 3 red
	{0x00, 0xFF, 0x00, 0xFF}, // 4 green
	{0x00, 0x00, 0xFF, 0xFF}, // 5 blue
	{0xFF, 0x00, 0xFF, 0xFF}, // 6 magenta
	{0xFF, 0xFF, 0x00, 0xFF}, // 7 yellow
	{0x00, 0xFF, 0xFF, 0xFF}, // 8 cyan
	{0x80, 0x80, 0x80, 0xFF}, // 9 grey
	{0xFF, 0x00, 0x00, 0xFF}, // 10 red
	{0x00, 0xFF, 0x00, 0xFF}, // 11 green
	{0x00, 0x00, 0xFF, 0xFF}, // 12 blue
	{0xFF, 0x00, 0xFF, 0xFF}, // 13 magenta
	{0xFF, 0xFF, 0x00, 0xFF}, // 14 yellow
	{0x00, 0xFF, 0xFF, 0xFF}, // 15 cyan
}

// Color maps a framebuffer byte to its display color.
func Color(b byte) color.RGBA {
	if b > 15 {
		return palette[15]
	}
	return palette[b]
}

// Framebuffer decodes the 32x32 video window into RGBA pixels and
// tracks the previous frame so a frontend can skip unchanged frames.
type Framebuffer struct {
	prev [FrameWidth * FrameHeight * 4]byte
}

func NewFramebuffer() *Framebuffer {
	return &Framebuffer{}
}

// Snapshot reads the video window from the bus and reports whether any
// pixel changed since the previous call. The returned slice is reused
// across calls.
func (f *Framebuffer) Snapshot(c *cpu.CPU) ([]byte, bool) {
	changed := false
	i := 0
	for addr := FrameStart; addr < FrameEnd; addr++ {
		col := Color(c.Bus.ReadByte(addr))
		if f.prev[i] != col.R || f.prev[i+1] != col.G || f.prev[i+2] != col.B {
			f.prev[i] = col.R
			f.prev[i+1] = col.G
			f.prev[i+2] = col.B
			f.prev[i+3] = 0xFF
			changed = true
		}
		i += 4
	}
	return f.prev[:], changed
}

// Image returns the current window as an *image.RGBA.
func (f *Framebuffer) Image(c *cpu.CPU) *image.RGBA {
	pix, _ := f.Snapshot(c)
	img := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	copy(img.Pix, pix)
	return img
}

// SaveScreenshot encodes the current window as a PNG.
func (f *Framebuffer) SaveScreenshot(c *cpu.CPU, filename string) error {
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, f.Image(c))
}
