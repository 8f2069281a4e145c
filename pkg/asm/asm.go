// Package asm assembles Cowgod-syntax CHIP-8 source into a ROM image.
// Every instruction is one big-endian 16-bit word; the output starts at
// the program origin 0x200. Labels and the .ORG, .WORD and .BYTE
// directives are supported.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gochip8/pkg/chip8"
)

type operandKind int

const (
	opNum  operandKind = iota // numeric immediate or label
	opReg                     // V0-VF
	opI                       // index register I
	opIMem                    // [I], memory at the index register
	opDT                      // delay timer
	opST                      // sound timer
	opKey                     // K, key wait
	opFont                    // F, font sprite lookup
	opBCD                     // B, BCD store
)

type operand struct {
	kind  operandKind
	reg   uint8
	token string // raw token, resolved to a value in pass 2
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

type Assembler struct {
	labels map[string]uint16
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

// Assemble translates source into ROM bytes. The returned map relates
// ROM offsets to source line numbers.
func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

// pass1 assigns every label its final address. Instructions are a fixed
// 2 bytes, so only the directives need special handling.
func (a *Assembler) pass1(lines []string) error {
	address := uint32(chip8.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			if address > chip8.MemorySize {
				return fmt.Errorf("label '%s' on line %d points past addressable memory", lbl, lineNo)
			}
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrg(p.operands, lineNo)
			if err != nil {
				return err
			}
			if uint32(target) < address {
				return fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			address = uint32(target)
		case ".WORD":
			if len(p.operands) != 1 {
				return fmt.Errorf(".WORD expects exactly one operand on line %d", lineNo)
			}
			address += 2
		case ".BYTE":
			if len(p.operands) == 0 {
				return fmt.Errorf(".BYTE expects at least one operand on line %d", lineNo)
			}
			address += uint32(len(p.operands))
		default:
			address += chip8.InstructionSize
		}

		if address > chip8.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		sourceMap[uint16(len(program))] = lineNo

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrg(p.operands, lineNo)
			if err != nil {
				return nil, nil, err
			}
			padding := int(target) - chip8.ProgramStart - len(program)
			if padding < 0 {
				return nil, nil, fmt.Errorf("cannot move origin backward on line %d", lineNo)
			}
			if padding > 0 {
				program = append(program, make([]byte, padding)...)
			}
			continue

		case ".WORD":
			if len(p.operands) != 1 {
				return nil, nil, fmt.Errorf(".WORD expects exactly one operand on line %d", lineNo)
			}
			val, err := a.resolveNumber(p.operands[0], 0xFFFF, lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, byte(val>>8), byte(val))
			continue

		case ".BYTE":
			if len(p.operands) == 0 {
				return nil, nil, fmt.Errorf(".BYTE expects at least one operand on line %d", lineNo)
			}
			for _, tok := range p.operands {
				val, err := a.resolveNumber(tok, 0xFF, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val))
			}
			continue
		}

		word, err := a.encode(p, lineNo)
		if err != nil {
			return nil, nil, err
		}
		program = append(program, byte(word>>8), byte(word))
	}

	return program, sourceMap, nil
}

// encode maps a mnemonic and its operand shapes to an instruction word.
// LD and ADD are heavily overloaded; the operand kinds pick the form.
func (a *Assembler) encode(p parsedLine, lineNo int) (uint16, error) {
	ops := make([]operand, len(p.operands))
	for i, tok := range p.operands {
		op, err := parseOperand(tok, lineNo)
		if err != nil {
			return 0, err
		}
		ops[i] = op
	}

	badShape := func() error {
		return fmt.Errorf("invalid operands for %s on line %d", p.mnemonic, lineNo)
	}

	switch p.mnemonic {
	case "CLS":
		if len(ops) != 0 {
			return 0, badShape()
		}
		return 0x00E0, nil

	case "RET":
		if len(ops) != 0 {
			return 0, badShape()
		}
		return 0x00EE, nil

	case "JP":
		switch {
		case len(ops) == 1 && ops[0].kind == opNum:
			addr, err := a.resolveAddr(ops[0], lineNo)
			return 0x1000 | addr, err
		case len(ops) == 2 && ops[0].kind == opReg && ops[0].reg == 0 && ops[1].kind == opNum:
			addr, err := a.resolveAddr(ops[1], lineNo)
			return 0xB000 | addr, err
		}
		return 0, badShape()

	case "CALL":
		if len(ops) != 1 || ops[0].kind != opNum {
			return 0, badShape()
		}
		addr, err := a.resolveAddr(ops[0], lineNo)
		return 0x2000 | addr, err

	case "SE":
		switch {
		case len(ops) == 2 && ops[0].kind == opReg && ops[1].kind == opNum:
			kk, err := a.resolveNumber(ops[1].token, 0xFF, lineNo)
			return 0x3000 | x(ops[0]) | kk, err
		case len(ops) == 2 && ops[0].kind == opReg && ops[1].kind == opReg:
			return 0x5000 | x(ops[0]) | y(ops[1]), nil
		}
		return 0, badShape()

	case "SNE":
		switch {
		case len(ops) == 2 && ops[0].kind == opReg && ops[1].kind == opNum:
			kk, err := a.resolveNumber(ops[1].token, 0xFF, lineNo)
			return 0x4000 | x(ops[0]) | kk, err
		case len(ops) == 2 && ops[0].kind == opReg && ops[1].kind == opReg:
			return 0x9000 | x(ops[0]) | y(ops[1]), nil
		}
		return 0, badShape()

	case "LD":
		switch {
		case len(ops) != 2:
			return 0, badShape()
		case ops[0].kind == opReg && ops[1].kind == opNum:
			kk, err := a.resolveNumber(ops[1].token, 0xFF, lineNo)
			return 0x6000 | x(ops[0]) | kk, err
		case ops[0].kind == opReg && ops[1].kind == opReg:
			return 0x8000 | x(ops[0]) | y(ops[1]), nil
		case ops[0].kind == opI && ops[1].kind == opNum:
			addr, err := a.resolveAddr(ops[1], lineNo)
			return 0xA000 | addr, err
		case ops[0].kind == opReg && ops[1].kind == opDT:
			return 0xF007 | x(ops[0]), nil
		case ops[0].kind == opReg && ops[1].kind == opKey:
			return 0xF00A | x(ops[0]), nil
		case ops[0].kind == opDT && ops[1].kind == opReg:
			return 0xF015 | x(ops[1]), nil
		case ops[0].kind == opST && ops[1].kind == opReg:
			return 0xF018 | x(ops[1]), nil
		case ops[0].kind == opFont && ops[1].kind == opReg:
			return 0xF029 | x(ops[1]), nil
		case ops[0].kind == opBCD && ops[1].kind == opReg:
			return 0xF033 | x(ops[1]), nil
		case ops[0].kind == opIMem && ops[1].kind == opReg:
			return 0xF055 | x(ops[1]), nil
		case ops[0].kind == opReg && ops[1].kind == opIMem:
			return 0xF065 | x(ops[0]), nil
		}
		return 0, badShape()

	case "ADD":
		switch {
		case len(ops) != 2:
			return 0, badShape()
		case ops[0].kind == opReg && ops[1].kind == opNum:
			kk, err := a.resolveNumber(ops[1].token, 0xFF, lineNo)
			return 0x7000 | x(ops[0]) | kk, err
		case ops[0].kind == opReg && ops[1].kind == opReg:
			return 0x8004 | x(ops[0]) | y(ops[1]), nil
		case ops[0].kind == opI && ops[1].kind == opReg:
			return 0xF01E | x(ops[1]), nil
		}
		return 0, badShape()

	case "OR", "AND", "XOR", "SUB", "SUBN":
		if len(ops) != 2 || ops[0].kind != opReg || ops[1].kind != opReg {
			return 0, badShape()
		}
		var low uint16
		switch p.mnemonic {
		case "OR":
			low = 0x1
		case "AND":
			low = 0x2
		case "XOR":
			low = 0x3
		case "SUB":
			low = 0x5
		case "SUBN":
			low = 0x7
		}
		return 0x8000 | x(ops[0]) | y(ops[1]) | low, nil

	case "SHR":
		if len(ops) != 1 || ops[0].kind != opReg {
			return 0, badShape()
		}
		return 0x8006 | x(ops[0]), nil

	case "SHL":
		if len(ops) != 1 || ops[0].kind != opReg {
			return 0, badShape()
		}
		return 0x800E | x(ops[0]), nil

	case "RND":
		if len(ops) != 2 || ops[0].kind != opReg || ops[1].kind != opNum {
			return 0, badShape()
		}
		kk, err := a.resolveNumber(ops[1].token, 0xFF, lineNo)
		return 0xC000 | x(ops[0]) | kk, err

	case "DRW":
		if len(ops) != 3 || ops[0].kind != opReg || ops[1].kind != opReg || ops[2].kind != opNum {
			return 0, badShape()
		}
		n, err := a.resolveNumber(ops[2].token, 0xF, lineNo)
		return 0xD000 | x(ops[0]) | y(ops[1]) | n, err

	case "SKP":
		if len(ops) != 1 || ops[0].kind != opReg {
			return 0, badShape()
		}
		return 0xE09E | x(ops[0]), nil

	case "SKNP":
		if len(ops) != 1 || ops[0].kind != opReg {
			return 0, badShape()
		}
		return 0xE0A1 | x(ops[0]), nil
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
}

func x(op operand) uint16 {
	return uint16(op.reg) << 8
}

func y(op operand) uint16 {
	return uint16(op.reg) << 4
}

func parseOrg(operands []string, lineNo int) (uint16, error) {
	if len(operands) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}
	target, err := strconv.ParseUint(operands[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", lineNo, operands[0])
	}
	if target < chip8.ProgramStart || target > chip8.MemorySize {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", lineNo, operands[0])
	}
	return uint16(target), nil
}

// parseOperand classifies one token. I, [I], DT, ST, K, F and B are
// reserved words and cannot be used as labels.
func parseOperand(token string, lineNo int) (operand, error) {
	switch strings.ToUpper(token) {
	case "I":
		return operand{kind: opI}, nil
	case "[I]":
		return operand{kind: opIMem}, nil
	case "DT":
		return operand{kind: opDT}, nil
	case "ST":
		return operand{kind: opST}, nil
	case "K":
		return operand{kind: opKey}, nil
	case "F":
		return operand{kind: opFont}, nil
	case "B":
		return operand{kind: opBCD}, nil
	}

	upper := strings.ToUpper(token)
	if len(upper) == 2 && upper[0] == 'V' {
		reg, err := strconv.ParseUint(upper[1:], 16, 8)
		if err != nil {
			return operand{}, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
		}
		return operand{kind: opReg, reg: uint8(reg)}, nil
	}

	return operand{kind: opNum, token: token}, nil
}

func (a *Assembler) resolveAddr(op operand, lineNo int) (uint16, error) {
	return a.resolveNumber(op.token, chip8.AddrMask, lineNo)
}

func (a *Assembler) resolveNumber(token string, max uint16, lineNo int) (uint16, error) {
	if value, err := strconv.ParseUint(token, 0, 32); err == nil {
		if value > uint64(max) {
			return 0, fmt.Errorf("value out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.labels[normalizeLabel(token)]; ok {
		if addr > max {
			return 0, fmt.Errorf("label '%s' out of range on line %d", token, lineNo)
		}
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid operand '%s' on line %d", token, lineNo)
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(raw)
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if beforeColon == "" {
			return p, fmt.Errorf("invalid label on line %d", lineNo)
		}

		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = stripComments(line)
	line = strings.TrimSpace(line)
	if line == "" {
		return p, nil
	}

	// Commas separate operands; brackets are kept so [I] stays a token.
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
