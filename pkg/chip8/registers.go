package chip8

const (
	// NumRegisters is the count of general-purpose 8-bit registers.
	NumRegisters = 16

	// FlagRegister indexes VF, overwritten by arithmetic, shift and draw
	// opcodes to report carry, borrow or collision.
	FlagRegister = 0xF

	// AddrMask truncates values to the 12-bit address space.
	AddrMask = 0x0FFF

	// InstructionSize is the byte width of one instruction word.
	InstructionSize = 2
)

// Registers holds the register file: sixteen 8-bit general registers, the
// 12-bit index register I, the 12-bit program counter and the two 8-bit
// countdown timers. Everything starts zeroed.
type Registers struct {
	V          [NumRegisters]uint8
	I          uint16
	PC         uint16
	DelayTimer uint8
	SoundTimer uint8
}

// Reset zeroes the register file and points PC at the program origin.
func (r *Registers) Reset() {
	*r = Registers{PC: ProgramStart}
}
