package chip8

import "errors"

// All guest-program faults are fatal; drivers classify them with errors.Is
// and halt. None of these conditions is transient.
var (
	// ErrUnknownOpcode reports a fetched word matching no instruction pattern.
	ErrUnknownOpcode = errors.New("unrecognized opcode")

	// ErrAddressRange reports a memory access or fetch outside 0x000-0xFFF.
	ErrAddressRange = errors.New("address out of range")

	// ErrStackOverflow reports call depth exceeding the stack capacity.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrStackUnderflow reports a return with no call frame on the stack.
	ErrStackUnderflow = errors.New("stack underflow")
)
