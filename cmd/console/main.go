// Headless runner: loads a binary image (or assembles a source file),
// runs the CPU to halt and prints the final machine state.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go6502/pkg/asm"
	"go6502/pkg/cpu"
	"go6502/pkg/machine"
)

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
	if err := vm.Load(image, origin); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	if err := vm.Run(); err != nil {
		log.Fatalf("execution stopped: %v", err)
	}

	c := vm.CPU
	fmt.Printf("halted at PC=%04X\n", c.PC)
	fmt.Printf("A=%02X X=%02X Y=%02X SP=%02X P=%08b\n",
		c.Reg.A, c.Reg.X, c.Reg.Y, c.Reg.SP, c.Flags.Byte())
	fmt.Printf("cycles=%d\n", vm.RAM.Cycles)
}
