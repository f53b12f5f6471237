// Desktop frontend: renders the 32x32 framebuffer window and feeds
// WASD key presses to the input latch, stepping the emulated CPU a
// batch of instructions per frame.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"go6502/pkg/asm"
	"go6502/pkg/cpu"
	"go6502/pkg/machine"
)

const (
	scale         = 10
	stepsPerFrame = 2000
)

var keyBytes = map[ebiten.Key]byte{
	ebiten.KeyW: 'w',
	ebiten.KeyA: 'a',
	ebiten.KeyS: 's',
	ebiten.KeyD: 'd',
}

type Game struct {
	vm       *machine.Machine
	keyboard *machine.Keyboard
	fb       *machine.Framebuffer
	screen   *ebiten.Image
	showHUD  bool
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showHUD = !g.showHUD
	}
	for key, b := range keyBytes {
		if inpututil.IsKeyJustPressed(key) {
			g.keyboard.Push(b)
		}
	}

	for i := 0; i < stepsPerFrame && !g.vm.CPU.Halted; i++ {
		if err := g.vm.CPU.Step(); err != nil {
			return err
		}
		g.vm.StepDevices()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screen == nil {
		g.screen = ebiten.NewImage(machine.FrameWidth, machine.FrameHeight)
	}
	pixels, _ := g.fb.Snapshot(g.vm.CPU)
	g.screen.WritePixels(pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	screen.DrawImage(g.screen, op)

	if g.showHUD {
		c := g.vm.CPU
		hud := fmt.Sprintf("PC=%04X A=%02X X=%02X Y=%02X SP=%02X P=%08b CYC=%d",
			c.PC, c.Reg.A, c.Reg.X, c.Reg.Y, c.Reg.SP, c.Flags.Byte(), g.vm.RAM.Cycles)
		text.Draw(screen, hud, basicfont.Face7x13, 4, 14, machine.Color(1))
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return machine.FrameWidth * scale, machine.FrameHeight * scale
}

// loadImage reads a raw binary, or assembles first when given a source
// file.
func loadImage(path string) ([]byte, uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
		return asm.Assemble(string(data))
	default:
		return data, cpu.LoadOrigin, nil
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <image.bin | program.s>\n", os.Args[0])
		os.Exit(1)
	}

	image, origin, err := loadImage(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	vm := machine.New()
	kb := machine.NewKeyboard()
	vm.Attach(kb)
	vm.Attach(machine.NewRandom(time.Now().UnixNano()))

	if err := vm.Load(image, origin); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(machine.FrameWidth*scale, machine.FrameHeight*scale)
	ebiten.SetWindowTitle("go6502")

	game := &Game{vm: vm, keyboard: kb, fb: machine.NewFramebuffer()}
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
