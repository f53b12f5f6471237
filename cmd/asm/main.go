// Assembler CLI: translates a 6502 source file into a raw binary image
// suitable for the desktop and console runners.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go6502/pkg/asm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <program.s> [out.bin]\n", os.Args[0])
		os.Exit(1)
	}
	in := os.Args[1]

	source, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", in, err)
		os.Exit(1)
	}

	code, origin, err := asm.Assemble(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "assemble %s: %v\n", in, err)
		os.Exit(1)
	}

	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".bin"
	if len(os.Args) > 2 {
		out = os.Args[2]
	}
	if err := os.WriteFile(out, code, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d bytes at origin $%04X\n", out, len(code), origin)
}
