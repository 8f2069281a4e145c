// Package chip8 implements the CHIP-8 virtual machine: 4 KiB of memory,
// sixteen 8-bit registers, a 64x32 monochrome framebuffer, a hexadecimal
// keypad and two 60 Hz countdown timers, driven one instruction at a time
// by an external frame loop.
package chip8

import (
	"fmt"
	"math/rand"
)

// VM is one machine instance. It owns all mutable state exclusively; the
// executor is the only mutator, and nothing runs concurrently against the
// same instance. The frame driver refreshes Keypad and calls TickTimers
// between steps.
type VM struct {
	Memory    Memory
	Registers Registers
	Stack     Stack
	Display   Display
	Keypad    Keypad

	rng *rand.Rand
}

// New creates a machine with the font table installed, PC at the program
// origin and the random source at its default seed. Execution under the
// default seed is fully reproducible.
func New() *VM {
	return NewWithSeed(0)
}

// NewWithSeed creates a machine whose RND opcode draws from a source
// seeded with seed.
func NewWithSeed(seed int64) *VM {
	vm := &VM{}
	vm.Reset()
	vm.SeedRandom(seed)
	return vm
}

// Reset returns all machine state to power-on condition. The random source
// is left untouched.
func (v *VM) Reset() {
	v.Memory.Reset()
	v.Registers.Reset()
	v.Stack.Reset()
	v.Display.Clear()
	v.Keypad.Reset()
}

// SeedRandom reseeds the source behind the RND opcode.
func (v *VM) SeedRandom(seed int64) {
	v.rng = rand.New(rand.NewSource(seed))
}

// LoadProgram places program bytes at the program origin and points PC
// there.
func (v *VM) LoadProgram(program []byte) error {
	if err := v.Memory.LoadProgram(program); err != nil {
		return err
	}
	v.Registers.PC = ProgramStart
	return nil
}

// TickTimers counts both timers down toward zero. The frame driver calls
// this at 60 Hz, independent of the instruction rate.
func (v *VM) TickTimers() {
	if v.Registers.DelayTimer > 0 {
		v.Registers.DelayTimer--
	}
	if v.Registers.SoundTimer > 0 {
		v.Registers.SoundTimer--
	}
}

// Beeping reports whether the sound timer is running.
func (v *VM) Beeping() bool {
	return v.Registers.SoundTimer > 0
}

// Step executes the instruction at PC: fetch, decode, apply. Any error is
// a fatal guest-program fault; the machine must not be stepped past it.
func (v *VM) Step() error {
	word, err := v.Memory.ReadInstruction(v.Registers.PC)
	if err != nil {
		return err
	}
	op, err := Decode(word)
	if err != nil {
		return fmt.Errorf("at 0x%03X: %w", v.Registers.PC, err)
	}
	return v.Exec(op)
}

// Exec applies one decoded operation and advances PC by one instruction,
// except where the operation sets PC itself: jumps and calls set it
// outright, taken skips advance by two instructions, and an unsatisfied
// key-wait leaves it unchanged so the next driver cycle re-executes the
// same instruction.
func (v *VM) Exec(op Opcode) error {
	r := &v.Registers
	next := (r.PC + InstructionSize) & AddrMask

	switch op.Kind {
	case Cls:
		v.Display.Clear()

	case Ret:
		addr, err := v.Stack.Pop()
		if err != nil {
			return fmt.Errorf("at 0x%03X: %w", r.PC, err)
		}
		next = addr

	case Jp:
		next = op.Addr

	case Call:
		if err := v.Stack.Push(next); err != nil {
			return fmt.Errorf("at 0x%03X: %w", r.PC, err)
		}
		next = op.Addr

	case SeByte:
		if r.V[op.X] == op.KK {
			next = (next + InstructionSize) & AddrMask
		}

	case SneByte:
		if r.V[op.X] != op.KK {
			next = (next + InstructionSize) & AddrMask
		}

	case SeReg:
		if r.V[op.X] == r.V[op.Y] {
			next = (next + InstructionSize) & AddrMask
		}

	case LdByte:
		r.V[op.X] = op.KK

	case AddByte:
		r.V[op.X] += op.KK

	case LdReg:
		r.V[op.X] = r.V[op.Y]

	case Or:
		r.V[op.X] |= r.V[op.Y]

	case And:
		r.V[op.X] &= r.V[op.Y]

	case Xor:
		r.V[op.X] ^= r.V[op.Y]

	case AddReg:
		sum := uint16(r.V[op.X]) + uint16(r.V[op.Y])
		r.V[op.X] = uint8(sum)
		r.V[FlagRegister] = flag(sum > 0xFF)

	case Sub:
		// VF = 1 iff no borrow, for both subtract variants.
		noBorrow := r.V[op.X] >= r.V[op.Y]
		r.V[op.X] -= r.V[op.Y]
		r.V[FlagRegister] = flag(noBorrow)

	case Subn:
		noBorrow := r.V[op.Y] >= r.V[op.X]
		r.V[op.X] = r.V[op.Y] - r.V[op.X]
		r.V[FlagRegister] = flag(noBorrow)

	case Shr:
		bit := r.V[op.X] & 0x01
		r.V[op.X] >>= 1
		r.V[FlagRegister] = bit

	case Shl:
		bit := r.V[op.X] >> 7
		r.V[op.X] <<= 1
		r.V[FlagRegister] = bit

	case SneReg:
		if r.V[op.X] != r.V[op.Y] {
			next = (next + InstructionSize) & AddrMask
		}

	case LdI:
		r.I = op.Addr

	case JpV0:
		next = (op.Addr + uint16(r.V[0])) & AddrMask

	case Rnd:
		r.V[op.X] = uint8(v.rng.Intn(256)) & op.KK

	case Drw:
		sprite, err := v.Memory.Slice(int(r.I), int(op.N))
		if err != nil {
			return fmt.Errorf("sprite read at 0x%03X: %w", r.PC, err)
		}
		collision := v.Display.DrawSprite(int(r.V[op.X]), int(r.V[op.Y]), sprite)
		r.V[FlagRegister] = flag(collision)

	case Skp:
		if v.Keypad.Pressed(r.V[op.X]) {
			next = (next + InstructionSize) & AddrMask
		}

	case Sknp:
		if !v.Keypad.Pressed(r.V[op.X]) {
			next = (next + InstructionSize) & AddrMask
		}

	case LdFromDT:
		r.V[op.X] = r.DelayTimer

	case LdKey:
		key, ok := v.Keypad.FirstPressed()
		if !ok {
			// Re-poll protocol: PC stays put, the driver re-executes
			// this instruction on its next cycle.
			return nil
		}
		r.V[op.X] = key

	case LdToDT:
		r.DelayTimer = r.V[op.X]

	case LdToST:
		r.SoundTimer = r.V[op.X]

	case AddI:
		r.I = (r.I + uint16(r.V[op.X])) & AddrMask

	case LdFont:
		r.I = FontStart + uint16(r.V[op.X])*FontGlyphSize

	case LdBCD:
		dst, err := v.Memory.Slice(int(r.I), 3)
		if err != nil {
			return fmt.Errorf("BCD store at 0x%03X: %w", r.PC, err)
		}
		value := r.V[op.X]
		dst[0] = value / 100
		dst[1] = value / 10 % 10
		dst[2] = value % 10

	case Store:
		dst, err := v.Memory.Slice(int(r.I), int(op.X)+1)
		if err != nil {
			return fmt.Errorf("register store at 0x%03X: %w", r.PC, err)
		}
		copy(dst, r.V[:op.X+1])

	case Load:
		src, err := v.Memory.Slice(int(r.I), int(op.X)+1)
		if err != nil {
			return fmt.Errorf("register load at 0x%03X: %w", r.PC, err)
		}
		copy(r.V[:op.X+1], src)
	}

	r.PC = next
	return nil
}

func flag(set bool) uint8 {
	if set {
		return 1
	}
	return 0
}
