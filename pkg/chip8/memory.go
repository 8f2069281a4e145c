package chip8

import "fmt"

const (
	// MemorySize is the full addressable byte range, 0x000-0xFFF.
	MemorySize = 4096

	// ProgramStart is where program bytes are loaded and execution begins.
	ProgramStart = 0x200

	// FontStart is the base address of the built-in hexadecimal font.
	FontStart = 0x000

	// FontGlyphSize is the number of bytes per font glyph.
	FontGlyphSize = 5
)

// fontSet holds the 16 built-in sprite glyphs for digits 0-F, 5 bytes each.
var fontSet = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat 4 KiB byte store. The font table occupies
// 0x000-0x04F, programs load at 0x200.
type Memory struct {
	bytes [MemorySize]byte
}

// Reset zeroes all memory and reinstalls the font table.
func (m *Memory) Reset() {
	m.bytes = [MemorySize]byte{}
	copy(m.bytes[FontStart:], fontSet[:])
}

// LoadProgram copies program bytes into memory starting at ProgramStart.
func (m *Memory) LoadProgram(program []byte) error {
	if len(program) > MemorySize-ProgramStart {
		return fmt.Errorf("program of %d bytes exceeds the %d bytes available at 0x%03X: %w",
			len(program), MemorySize-ProgramStart, ProgramStart, ErrAddressRange)
	}
	copy(m.bytes[ProgramStart:], program)
	return nil
}

// ReadInstruction reads the big-endian 16-bit word at addr and addr+1.
func (m *Memory) ReadInstruction(addr uint16) (uint16, error) {
	if int(addr)+1 >= MemorySize {
		return 0, fmt.Errorf("instruction fetch at 0x%03X: %w", addr, ErrAddressRange)
	}
	return uint16(m.bytes[addr])<<8 | uint16(m.bytes[addr+1]), nil
}

// Slice returns a live view of length bytes starting at start. Writes to
// the returned slice mutate memory directly; sprite fetch, BCD store and
// the bulk register transfers all go through here.
func (m *Memory) Slice(start, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length > MemorySize {
		return nil, fmt.Errorf("byte range [0x%03X, 0x%03X): %w", start, start+length, ErrAddressRange)
	}
	return m.bytes[start : start+length], nil
}
