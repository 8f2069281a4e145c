package chip8

import "fmt"

// StackSize is the number of 16-bit return-address slots.
const StackSize = 16

// Stack is the bounded LIFO of subroutine return addresses. The pointer
// always indexes the next free slot; at most StackSize-1 frames may be
// live at once.
type Stack struct {
	slots   [StackSize]uint16
	pointer int
}

// Reset drops all frames.
func (s *Stack) Reset() {
	*s = Stack{}
}

// Depth returns the number of live frames.
func (s *Stack) Depth() int {
	return s.pointer
}

// Push records a return address. Exceeding the call depth limit signals
// runaway recursion in the guest program.
func (s *Stack) Push(addr uint16) error {
	if s.pointer >= StackSize-1 {
		return fmt.Errorf("call depth %d: %w", s.pointer, ErrStackOverflow)
	}
	s.slots[s.pointer] = addr
	s.pointer++
	return nil
}

// Pop removes and returns the most recent return address.
func (s *Stack) Pop() (uint16, error) {
	if s.pointer == 0 {
		return 0, fmt.Errorf("return with empty stack: %w", ErrStackUnderflow)
	}
	s.pointer--
	return s.slots[s.pointer], nil
}
