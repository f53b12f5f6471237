// Package asm is a small two-pass 6502 assembler. It understands the
// documented instruction set, labels, and the .org/.byte/.word
// directives; encoding goes through the opcode table exported by
// pkg/cpu.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"go6502/pkg/cpu"
)

var mnemonics = map[string]cpu.Mnemonic{
	"ADC": cpu.ADC, "AND": cpu.AND, "ASL": cpu.ASL, "BCC": cpu.BCC,
	"BCS": cpu.BCS, "BEQ": cpu.BEQ, "BIT": cpu.BIT, "BMI": cpu.BMI,
	"BNE": cpu.BNE, "BPL": cpu.BPL, "BRK": cpu.BRK, "BVC": cpu.BVC,
	"BVS": cpu.BVS, "CLC": cpu.CLC, "CLD": cpu.CLD, "CLI": cpu.CLI,
	"CLV": cpu.CLV, "CMP": cpu.CMP, "CPX": cpu.CPX, "CPY": cpu.CPY,
	"DEC": cpu.DEC, "DEX": cpu.DEX, "DEY": cpu.DEY, "EOR": cpu.EOR,
	"INC": cpu.INC, "INX": cpu.INX, "INY": cpu.INY, "JMP": cpu.JMP,
	"JSR": cpu.JSR, "LDA": cpu.LDA, "LDX": cpu.LDX, "LDY": cpu.LDY,
	"LSR": cpu.LSR, "NOP": cpu.NOP, "ORA": cpu.ORA, "PHA": cpu.PHA,
	"PHP": cpu.PHP, "PLA": cpu.PLA, "PLP": cpu.PLP, "ROL": cpu.ROL,
	"ROR": cpu.ROR, "RTI": cpu.RTI, "RTS": cpu.RTS, "SBC": cpu.SBC,
	"SEC": cpu.SEC, "SED": cpu.SED, "SEI": cpu.SEI, "STA": cpu.STA,
	"STX": cpu.STX, "STY": cpu.STY, "TAX": cpu.TAX, "TAY": cpu.TAY,
	"TSX": cpu.TSX, "TXA": cpu.TXA, "TXS": cpu.TXS, "TYA": cpu.TYA,
}

var branchMnemonics = map[cpu.Mnemonic]bool{
	cpu.BCC: true, cpu.BCS: true, cpu.BEQ: true, cpu.BMI: true,
	cpu.BNE: true, cpu.BPL: true, cpu.BVC: true, cpu.BVS: true,
}

type Assembler struct {
	labels map[string]uint16
	origin uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operand  string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
		origin: cpu.LoadOrigin,
	}
}

// Assemble translates source into a binary image and the origin it
// should be loaded at.
func Assemble(source string) ([]byte, uint16, error) {
	return NewAssembler().Assemble(source)
}

func (a *Assembler) Assemble(source string) ([]byte, uint16, error) {
	lines := strings.Split(source, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, 0, err
	}

	code, err := a.pass2(lines)
	if err != nil {
		return nil, 0, err
	}
	return code, a.origin, nil
}

// pass1 sizes every line to assign label addresses.
func (a *Assembler) pass1(lines []string) error {
	address := uint32(a.origin)
	emitted := false

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if address > 0xFFFF {
				return fmt.Errorf("label '%s' on line %d points past addressable memory", lbl, lineNo)
			}
			key := strings.ToUpper(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		if strings.HasPrefix(p.mnemonic, ".") {
			n, err := a.directiveSize(p, &address, emitted)
			if err != nil {
				return err
			}
			emitted = emitted || n > 0
			address += uint32(n)
			continue
		}

		size, err := a.instructionSize(p)
		if err != nil {
			return err
		}
		address += uint32(size)
		emitted = true
	}
	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, error) {
	var code []byte
	address := uint32(a.origin)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}
		if p.mnemonic == "" {
			continue
		}

		var bytes []byte
		if strings.HasPrefix(p.mnemonic, ".") {
			bytes, err = a.directiveBytes(p)
		} else {
			bytes, err = a.encode(p, uint16(address))
		}
		if err != nil {
			return nil, err
		}
		code = append(code, bytes...)
		address += uint32(len(bytes))
		if address > 0x10000 {
			return nil, fmt.Errorf("line %d: output past end of addressable memory", lineNo)
		}
	}
	return code, nil
}

// directiveSize handles .org/.byte/.word during pass 1. .org may only
// appear before any code or data has been emitted.
func (a *Assembler) directiveSize(p parsedLine, address *uint32, emitted bool) (int, error) {
	switch p.mnemonic {
	case ".ORG":
		if emitted {
			return 0, fmt.Errorf(".org on line %d after code was emitted", p.lineNo)
		}
		v, err := parseNumber(p.operand)
		if err != nil {
			return 0, fmt.Errorf(".org on line %d: %v", p.lineNo, err)
		}
		a.origin = uint16(v)
		*address = uint32(v)
		return 0, nil
	case ".BYTE":
		return len(splitOperands(p.operand)), nil
	case ".WORD":
		return 2 * len(splitOperands(p.operand)), nil
	}
	return 0, fmt.Errorf("unknown directive '%s' on line %d", p.mnemonic, p.lineNo)
}

func (a *Assembler) directiveBytes(p parsedLine) ([]byte, error) {
	switch p.mnemonic {
	case ".ORG":
		return nil, nil
	case ".BYTE":
		var out []byte
		for _, field := range splitOperands(p.operand) {
			v, err := a.value(field)
			if err != nil {
				return nil, fmt.Errorf(".byte on line %d: %v", p.lineNo, err)
			}
			if v > 0xFF {
				return nil, fmt.Errorf(".byte on line %d: value $%X does not fit in a byte", p.lineNo, v)
			}
			out = append(out, byte(v))
		}
		return out, nil
	case ".WORD":
		var out []byte
		for _, field := range splitOperands(p.operand) {
			v, err := a.value(field)
			if err != nil {
				return nil, fmt.Errorf(".word on line %d: %v", p.lineNo, err)
			}
			out = append(out, byte(v), byte(v>>8))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown directive '%s' on line %d", p.mnemonic, p.lineNo)
}

// operandShape is the syntactic classification of an operand, before
// zero-page/absolute width is settled.
type operandShape struct {
	mode cpu.AddrMode
	expr string
}

// classify determines the addressing mode from operand syntax alone, so
// pass 1 and pass 2 agree on instruction widths regardless of label
// values. A bare expression is zero page only when it is a numeric
// literal that fits in a byte; labels always assemble as absolute.
func classify(operand string) (operandShape, error) {
	s := strings.TrimSpace(operand)
	up := strings.ToUpper(s)

	switch {
	case s == "":
		return operandShape{mode: cpu.Implied}, nil
	case up == "A":
		return operandShape{mode: cpu.Accumulator}, nil
	case strings.HasPrefix(s, "#"):
		return operandShape{mode: cpu.Immediate, expr: s[1:]}, nil
	case strings.HasPrefix(s, "("):
		inner := s[1:]
		switch {
		case strings.HasSuffix(strings.ToUpper(inner), ",X)"):
			return operandShape{mode: cpu.IndirectX, expr: inner[:len(inner)-3]}, nil
		case strings.HasSuffix(strings.ToUpper(inner), "),Y"):
			return operandShape{mode: cpu.IndirectY, expr: inner[:len(inner)-3]}, nil
		case strings.HasSuffix(inner, ")"):
			return operandShape{mode: cpu.Indirect, expr: inner[:len(inner)-1]}, nil
		}
		return operandShape{}, fmt.Errorf("malformed indirect operand '%s'", s)
	case strings.HasSuffix(up, ",X"):
		expr := s[:len(s)-2]
		if fitsZeroPage(expr) {
			return operandShape{mode: cpu.ZeroPageX, expr: expr}, nil
		}
		return operandShape{mode: cpu.AbsoluteX, expr: expr}, nil
	case strings.HasSuffix(up, ",Y"):
		expr := s[:len(s)-2]
		if fitsZeroPage(expr) {
			return operandShape{mode: cpu.ZeroPageY, expr: expr}, nil
		}
		return operandShape{mode: cpu.AbsoluteY, expr: expr}, nil
	default:
		if fitsZeroPage(s) {
			return operandShape{mode: cpu.ZeroPage, expr: s}, nil
		}
		return operandShape{mode: cpu.Absolute, expr: s}, nil
	}
}

func (a *Assembler) instructionSize(p parsedLine) (int, error) {
	m, shape, err := a.classifyLine(p)
	if err != nil {
		return 0, err
	}
	if branchMnemonics[m] {
		return 2, nil
	}
	mode, err := a.settleMode(m, shape, p.lineNo)
	if err != nil {
		return 0, err
	}
	return 1 + cpu.OperandLength(mode), nil
}

func (a *Assembler) classifyLine(p parsedLine) (cpu.Mnemonic, operandShape, error) {
	m, ok := mnemonics[strings.ToUpper(p.mnemonic)]
	if !ok {
		return 0, operandShape{}, fmt.Errorf("unknown mnemonic '%s' on line %d", p.mnemonic, p.lineNo)
	}
	shape, err := classify(p.operand)
	if err != nil {
		return 0, operandShape{}, fmt.Errorf("line %d: %v", p.lineNo, err)
	}
	// A bare ASL/LSR/ROL/ROR means the accumulator form.
	if shape.mode == cpu.Implied {
		if _, ok := cpu.Opcode(m, cpu.Accumulator); ok {
			shape.mode = cpu.Accumulator
		}
	}
	return m, shape, nil
}

// settleMode promotes a zero-page classification to absolute when the
// mnemonic has no zero-page form (for example JMP $10).
func (a *Assembler) settleMode(m cpu.Mnemonic, shape operandShape, lineNo int) (cpu.AddrMode, error) {
	mode := shape.mode
	if _, ok := cpu.Opcode(m, mode); ok {
		return mode, nil
	}
	promoted, ok := map[cpu.AddrMode]cpu.AddrMode{
		cpu.ZeroPage:  cpu.Absolute,
		cpu.ZeroPageX: cpu.AbsoluteX,
		cpu.ZeroPageY: cpu.AbsoluteY,
	}[mode]
	if ok {
		if _, ok := cpu.Opcode(m, promoted); ok {
			return promoted, nil
		}
	}
	return 0, fmt.Errorf("%v does not support %v addressing (line %d)", m, mode, lineNo)
}

func (a *Assembler) encode(p parsedLine, address uint16) ([]byte, error) {
	m, shape, err := a.classifyLine(p)
	if err != nil {
		return nil, err
	}

	if branchMnemonics[m] {
		return a.encodeBranch(m, shape, address, p.lineNo)
	}

	mode, err := a.settleMode(m, shape, p.lineNo)
	if err != nil {
		return nil, err
	}
	code, _ := cpu.Opcode(m, mode)

	switch cpu.OperandLength(mode) {
	case 0:
		return []byte{code}, nil
	case 1:
		v, err := a.value(shape.expr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", p.lineNo, err)
		}
		if v > 0xFF {
			return nil, fmt.Errorf("line %d: operand $%X does not fit in a byte", p.lineNo, v)
		}
		return []byte{code, byte(v)}, nil
	default:
		v, err := a.value(shape.expr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", p.lineNo, err)
		}
		return []byte{code, byte(v), byte(v >> 8)}, nil
	}
}

// encodeBranch turns an absolute target into the signed displacement
// relative to the instruction after the branch.
func (a *Assembler) encodeBranch(m cpu.Mnemonic, shape operandShape, address uint16, lineNo int) ([]byte, error) {
	code, ok := cpu.Opcode(m, cpu.Relative)
	if !ok {
		return nil, fmt.Errorf("%v has no relative encoding (line %d)", m, lineNo)
	}
	target, err := a.value(shape.expr)
	if err != nil {
		return nil, fmt.Errorf("line %d: %v", lineNo, err)
	}
	disp := int(target) - int(address) - 2
	if disp < -128 || disp > 127 {
		return nil, fmt.Errorf("branch target out of range on line %d (displacement %d)", lineNo, disp)
	}
	return []byte{code, byte(int8(disp))}, nil
}

// value evaluates an expression: a numeric literal or a label.
func (a *Assembler) value(expr string) (uint16, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return 0, fmt.Errorf("missing operand")
	}
	if isNumber(s) {
		return parseNumber(s)
	}
	if v, ok := a.labels[strings.ToUpper(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("undefined label '%s'", s)
}

func fitsZeroPage(expr string) bool {
	s := strings.TrimSpace(expr)
	if !isNumber(s) {
		return false
	}
	v, err := parseNumber(s)
	return err == nil && v <= 0xFF
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '$' || s[0] == '%' {
		return true
	}
	return s[0] >= '0' && s[0] <= '9'
}

func parseNumber(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "$"):
		base = 16
		digits = s[1:]
	case strings.HasPrefix(s, "%"):
		base = 2
		digits = s[1:]
	}
	v, err := strconv.ParseUint(digits, base, 17)
	if err != nil || v > 0xFFFF {
		return 0, fmt.Errorf("bad number '%s'", s)
	}
	return uint16(v), nil
}

func splitOperands(s string) []string {
	var out []string
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}

// parseLine strips comments and separates labels from the statement.
// Multiple labels may stack on one line; the mnemonic keeps its case
// for error messages.
func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := raw
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)

	for {
		i := strings.IndexByte(line, ':')
		if i < 0 {
			break
		}
		lbl := strings.TrimSpace(line[:i])
		if lbl == "" || strings.ContainsAny(lbl, " \t") {
			return parsedLine{}, fmt.Errorf("malformed label on line %d", lineNo)
		}
		p.labels = append(p.labels, lbl)
		line = strings.TrimSpace(line[i+1:])
	}

	if line == "" {
		return p, nil
	}

	if i := strings.IndexAny(line, " \t"); i >= 0 {
		p.mnemonic = line[:i]
		p.operand = strings.TrimSpace(line[i+1:])
	} else {
		p.mnemonic = line
	}
	if strings.HasPrefix(p.mnemonic, ".") {
		p.mnemonic = strings.ToUpper(p.mnemonic)
	}
	return p, nil
}
