package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// exec decodes and applies a single instruction word.
func exec(t *testing.T, vm *VM, word uint16) {
	t.Helper()
	op, err := Decode(word)
	assert.NoError(t, err)
	assert.NoError(t, vm.Exec(op))
}

func TestLoadImmediateAdvancesPC(t *testing.T) {
	vm := New()
	for x := uint16(0); x < NumRegisters; x++ {
		pc := vm.Registers.PC

		exec(t, vm, 0x60AB|x<<8)

		assert.Equal(t, uint8(0xAB), vm.Registers.V[x])
		assert.Equal(t, pc+InstructionSize, vm.Registers.PC)
	}
}

func TestJumpScenario(t *testing.T) {
	vm := New()
	assert.NoError(t, vm.LoadProgram([]byte{0x1A, 0xBC}))

	assert.NoError(t, vm.Step())

	assert.Equal(t, uint16(0x0ABC), vm.Registers.PC)
}

func TestCallAndReturn(t *testing.T) {
	vm := New()

	exec(t, vm, 0x2ABC)

	assert.Equal(t, uint16(0x0ABC), vm.Registers.PC)
	assert.Equal(t, 1, vm.Stack.Depth())

	exec(t, vm, 0x00EE)

	// Return resumes after the call site.
	assert.Equal(t, uint16(ProgramStart+InstructionSize), vm.Registers.PC)
	assert.Equal(t, 0, vm.Stack.Depth())
}

func TestReturnOnEmptyStack(t *testing.T) {
	vm := New()
	op, err := Decode(0x00EE)
	assert.NoError(t, err)

	err = vm.Exec(op)

	assert.True(t, errors.Is(err, ErrStackUnderflow))
}

func TestSkipVariants(t *testing.T) {
	tests := []struct {
		name  string
		word  uint16
		setup func(*VM)
		taken bool
	}{
		{"se byte equal", 0x31AB, func(vm *VM) { vm.Registers.V[1] = 0xAB }, true},
		{"se byte unequal", 0x31AB, func(vm *VM) { vm.Registers.V[1] = 0xAC }, false},
		{"sne byte equal", 0x41AB, func(vm *VM) { vm.Registers.V[1] = 0xAB }, false},
		{"sne byte unequal", 0x41AB, func(vm *VM) { vm.Registers.V[1] = 0xAC }, true},
		{"se reg equal", 0x5120, func(vm *VM) { vm.Registers.V[1], vm.Registers.V[2] = 7, 7 }, true},
		{"se reg unequal", 0x5120, func(vm *VM) { vm.Registers.V[1], vm.Registers.V[2] = 7, 8 }, false},
		{"sne reg equal", 0x9120, func(vm *VM) { vm.Registers.V[1], vm.Registers.V[2] = 7, 7 }, false},
		{"sne reg unequal", 0x9120, func(vm *VM) { vm.Registers.V[1], vm.Registers.V[2] = 7, 8 }, true},
		{"skp pressed", 0xE19E, func(vm *VM) { vm.Registers.V[1] = 0x5; vm.Keypad.Set(0x5, true) }, true},
		{"skp unpressed", 0xE19E, func(vm *VM) { vm.Registers.V[1] = 0x5 }, false},
		{"sknp pressed", 0xE1A1, func(vm *VM) { vm.Registers.V[1] = 0x5; vm.Keypad.Set(0x5, true) }, false},
		{"sknp unpressed", 0xE1A1, func(vm *VM) { vm.Registers.V[1] = 0x5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := New()
			tt.setup(vm)
			pc := vm.Registers.PC

			exec(t, vm, tt.word)

			want := pc + InstructionSize
			if tt.taken {
				want += InstructionSize
			}
			assert.Equal(t, want, vm.Registers.PC)
		})
	}
}

func TestAddWithCarry(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint8
		sum      uint8
		carry    uint8
		flagInit uint8
	}{
		{"no overflow", 50, 100, 150, 0, 4},
		{"overflow", 200, 100, 44, 1, 4},
		{"exact boundary", 255, 1, 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := New()
			vm.Registers.V[1] = tt.a
			vm.Registers.V[2] = tt.b
			vm.Registers.V[FlagRegister] = tt.flagInit

			exec(t, vm, 0x8124)

			assert.Equal(t, tt.sum, vm.Registers.V[1])
			assert.Equal(t, tt.b, vm.Registers.V[2])
			assert.Equal(t, tt.carry, vm.Registers.V[FlagRegister])
		})
	}
}

// Both subtract variants use the same polarity: VF = 1 means no borrow
// occurred.
func TestSubtractFlagPolarity(t *testing.T) {
	vm := New()
	vm.Registers.V[1] = 150
	vm.Registers.V[2] = 100

	exec(t, vm, 0x8125)

	assert.Equal(t, uint8(50), vm.Registers.V[1])
	assert.Equal(t, uint8(1), vm.Registers.V[FlagRegister])

	vm.Registers.V[1] = 100
	vm.Registers.V[2] = 200

	exec(t, vm, 0x8125)

	assert.Equal(t, uint8(156), vm.Registers.V[1])
	assert.Equal(t, uint8(0), vm.Registers.V[FlagRegister])

	vm.Registers.V[1] = 100
	vm.Registers.V[2] = 150

	exec(t, vm, 0x8127)

	assert.Equal(t, uint8(50), vm.Registers.V[1])
	assert.Equal(t, uint8(1), vm.Registers.V[FlagRegister])

	vm.Registers.V[1] = 200
	vm.Registers.V[2] = 100

	exec(t, vm, 0x8127)

	assert.Equal(t, uint8(156), vm.Registers.V[1])
	assert.Equal(t, uint8(0), vm.Registers.V[FlagRegister])
}

func TestShiftsCaptureEdgeBits(t *testing.T) {
	vm := New()
	vm.Registers.V[1] = 0b0000_0101

	exec(t, vm, 0x8106)

	assert.Equal(t, uint8(0b0000_0010), vm.Registers.V[1])
	assert.Equal(t, uint8(1), vm.Registers.V[FlagRegister])

	vm.Registers.V[1] = 0b0000_1010

	exec(t, vm, 0x8106)

	assert.Equal(t, uint8(0b0000_0101), vm.Registers.V[1])
	assert.Equal(t, uint8(0), vm.Registers.V[FlagRegister])

	vm.Registers.V[1] = 0b1010_1010

	exec(t, vm, 0x810E)

	assert.Equal(t, uint8(0b0101_0100), vm.Registers.V[1])
	assert.Equal(t, uint8(1), vm.Registers.V[FlagRegister])

	vm.Registers.V[1] = 0b0110_1010

	exec(t, vm, 0x810E)

	assert.Equal(t, uint8(0b1101_0100), vm.Registers.V[1])
	assert.Equal(t, uint8(0), vm.Registers.V[FlagRegister])
}

func TestBitwiseAndMove(t *testing.T) {
	vm := New()
	vm.Registers.V[1] = 0b1100_1100
	vm.Registers.V[2] = 0b0011_1100

	exec(t, vm, 0x8121)
	assert.Equal(t, uint8(0b1111_1100), vm.Registers.V[1])

	vm.Registers.V[1] = 0b1100_1100
	exec(t, vm, 0x8122)
	assert.Equal(t, uint8(0b0000_1100), vm.Registers.V[1])

	vm.Registers.V[1] = 0b1100_1100
	exec(t, vm, 0x8123)
	assert.Equal(t, uint8(0b1111_0000), vm.Registers.V[1])

	exec(t, vm, 0x8120)
	assert.Equal(t, uint8(0b0011_1100), vm.Registers.V[1])
	assert.Equal(t, uint8(0b0011_1100), vm.Registers.V[2])
}

func TestAddImmediateWrapsWithoutFlag(t *testing.T) {
	vm := New()
	vm.Registers.V[1] = 255
	vm.Registers.V[FlagRegister] = 7

	exec(t, vm, 0x7101)

	assert.Equal(t, uint8(0), vm.Registers.V[1])
	assert.Equal(t, uint8(7), vm.Registers.V[FlagRegister])
}

func TestRandomIsDeterministicUnderSeed(t *testing.T) {
	a := NewWithSeed(0xFF)
	b := NewWithSeed(0xFF)

	exec(t, a, 0xC1FF)
	exec(t, b, 0xC1FF)

	assert.Equal(t, a.Registers.V[1], b.Registers.V[1])

	// The mask limits the stored value.
	exec(t, a, 0xC20F)
	assert.True(t, a.Registers.V[2] <= 0x0F)
}

func TestDrawSpriteSetsCollisionFlag(t *testing.T) {
	vm := New()
	vm.Registers.I = 0x300
	vm.Memory.bytes[0x300] = 0b0100_0011
	vm.Display.Rows[0] = 0b1101_1100

	exec(t, vm, 0xD001)

	assert.Equal(t, uint64(0b1001_1111), vm.Display.Rows[0])
	assert.Equal(t, uint8(1), vm.Registers.V[FlagRegister])

	// Drawing the same sprite again erases it and also collides.
	vm.Registers.PC = ProgramStart
	exec(t, vm, 0xD001)

	assert.Equal(t, uint64(0b1101_1100), vm.Display.Rows[0])
	assert.Equal(t, uint8(1), vm.Registers.V[FlagRegister])
}

func TestDrawSpriteUsesRegisterValues(t *testing.T) {
	vm := New()
	vm.Registers.I = 0x300
	vm.Memory.bytes[0x300] = 0xFF
	vm.Registers.V[4] = 8
	vm.Registers.V[5] = 3

	exec(t, vm, 0xD451)

	assert.Equal(t, uint64(0xFF)<<8, vm.Display.Rows[3])
	assert.Equal(t, uint8(0), vm.Registers.V[FlagRegister])
}

func TestDrawSpriteOpcodeWrapsHorizontally(t *testing.T) {
	vm := New()
	vm.Registers.I = 0x300
	vm.Memory.bytes[0x300] = 0xFF
	vm.Registers.V[0] = 60

	exec(t, vm, 0xD001)

	assert.Equal(t, uint64(0xF00000000000000F), vm.Display.Rows[0])
}

func TestClearScreenScenario(t *testing.T) {
	vm := New()
	for i := range vm.Display.Rows {
		vm.Display.Rows[i] = ^uint64(0)
	}

	exec(t, vm, 0x00E0)

	for _, row := range vm.Display.Rows {
		assert.Equal(t, uint64(0), row)
	}
}

func TestKeyWaitRepolls(t *testing.T) {
	vm := New()
	vm.Registers.V[2] = 0xAA
	pc := vm.Registers.PC

	// No key down: PC must not move, the register must not change.
	exec(t, vm, 0xF20A)
	assert.Equal(t, pc, vm.Registers.PC)
	assert.Equal(t, uint8(0xAA), vm.Registers.V[2])

	exec(t, vm, 0xF20A)
	assert.Equal(t, pc, vm.Registers.PC)

	// Once a key goes down, the same instruction completes.
	vm.Keypad.Set(0x5, true)
	exec(t, vm, 0xF20A)

	assert.Equal(t, uint8(0x5), vm.Registers.V[2])
	assert.Equal(t, pc+InstructionSize, vm.Registers.PC)
}

func TestTimers(t *testing.T) {
	vm := New()
	vm.Registers.V[1] = 0xFA

	exec(t, vm, 0xF115)
	assert.Equal(t, uint8(0xFA), vm.Registers.DelayTimer)

	exec(t, vm, 0xF118)
	assert.Equal(t, uint8(0xFA), vm.Registers.SoundTimer)
	assert.True(t, vm.Beeping())

	exec(t, vm, 0xF207)
	assert.Equal(t, uint8(0xFA), vm.Registers.V[2])

	vm.TickTimers()
	assert.Equal(t, uint8(0xF9), vm.Registers.DelayTimer)
	assert.Equal(t, uint8(0xF9), vm.Registers.SoundTimer)

	vm.Registers.DelayTimer = 0
	vm.Registers.SoundTimer = 0
	vm.TickTimers()
	assert.Equal(t, uint8(0), vm.Registers.DelayTimer)
	assert.Equal(t, uint8(0), vm.Registers.SoundTimer)
	assert.False(t, vm.Beeping())
}

func TestIndexRegisterOpcodes(t *testing.T) {
	vm := New()

	exec(t, vm, 0xA111)
	assert.Equal(t, uint16(0x111), vm.Registers.I)

	vm.Registers.V[2] = 0xA0
	exec(t, vm, 0xF21E)
	assert.Equal(t, uint16(0x1B1), vm.Registers.I)

	// The sum stays inside the 12-bit address space.
	vm.Registers.I = 0xFFF
	vm.Registers.V[2] = 0x02
	exec(t, vm, 0xF21E)
	assert.Equal(t, uint16(0x001), vm.Registers.I)
}

func TestJumpPlusV0MasksAddress(t *testing.T) {
	vm := New()
	vm.Registers.V[0] = 0xAA

	exec(t, vm, 0xB100)
	assert.Equal(t, uint16(0x1AA), vm.Registers.PC)

	vm.Registers.V[0] = 0xFF
	exec(t, vm, 0xBFFF)
	assert.Equal(t, uint16(0x0FE), vm.Registers.PC)
}

func TestFontSpriteAddress(t *testing.T) {
	vm := New()
	vm.Registers.V[2] = 0x5

	exec(t, vm, 0xF229)

	assert.Equal(t, uint16(25), vm.Registers.I)
	glyph, err := vm.Memory.Slice(int(vm.Registers.I), FontGlyphSize)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0x80, 0xF0, 0x10, 0xF0}, glyph)
}

func TestBCDStore(t *testing.T) {
	vm := New()
	vm.Registers.V[5] = 123
	vm.Registers.I = 100

	exec(t, vm, 0xF533)

	digits, err := vm.Memory.Slice(100, 3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, digits)
	assert.Equal(t, uint16(100), vm.Registers.I)
}

func TestBulkRegisterTransfer(t *testing.T) {
	vm := New()
	vm.Registers.I = 0x100
	for i := range vm.Registers.V {
		vm.Registers.V[i] = uint8(i)
	}

	exec(t, vm, 0xFF55)

	stored, err := vm.Memory.Slice(0x100, NumRegisters)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, stored)

	vm.Registers.V = [NumRegisters]uint8{}
	exec(t, vm, 0xFF65)

	for i, v := range vm.Registers.V {
		assert.Equal(t, uint8(i), v)
	}
}

func TestBulkTransferInclusiveUpperBound(t *testing.T) {
	vm := New()
	vm.Registers.I = 0x100
	vm.Registers.V[0] = 0xAA
	vm.Registers.V[1] = 0xBB
	vm.Registers.V[2] = 0xCC

	// Only V0..=V1 move; V2 stays out.
	exec(t, vm, 0xF155)

	stored, err := vm.Memory.Slice(0x100, 3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0x00}, stored)
}

func TestStepRejectsUnknownOpcode(t *testing.T) {
	vm := New()
	assert.NoError(t, vm.LoadProgram([]byte{0xFF, 0xFF}))

	err := vm.Step()

	assert.True(t, errors.Is(err, ErrUnknownOpcode))
	// PC untouched so the driver can report the faulting address.
	assert.Equal(t, uint16(ProgramStart), vm.Registers.PC)
}

func TestStepFailsFetchingPastMemoryEnd(t *testing.T) {
	vm := New()
	vm.Registers.PC = 0xFFF

	err := vm.Step()

	assert.True(t, errors.Is(err, ErrAddressRange))
}

func TestCallOverflowIsFatal(t *testing.T) {
	vm := New()

	var err error
	for i := 0; i < StackSize; i++ {
		op, decodeErr := Decode(0x2ABC)
		assert.NoError(t, decodeErr)
		if err = vm.Exec(op); err != nil {
			break
		}
	}

	assert.True(t, errors.Is(err, ErrStackOverflow))
}

func TestDrawSpriteOutsideMemoryIsFatal(t *testing.T) {
	vm := New()
	vm.Registers.I = 0xFFE

	op, err := Decode(0xD005)
	assert.NoError(t, err)
	err = vm.Exec(op)

	assert.True(t, errors.Is(err, ErrAddressRange))
}

func TestResetRestoresPowerOnState(t *testing.T) {
	vm := New()
	assert.NoError(t, vm.LoadProgram([]byte{0x00, 0xE0}))
	vm.Registers.V[3] = 9
	vm.Display.Rows[0] = 1
	vm.Keypad.Set(2, true)
	assert.NoError(t, vm.Stack.Push(0x200))

	vm.Reset()

	assert.Equal(t, uint16(ProgramStart), vm.Registers.PC)
	assert.Equal(t, uint8(0), vm.Registers.V[3])
	assert.Equal(t, uint64(0), vm.Display.Rows[0])
	assert.False(t, vm.Keypad.Pressed(2))
	assert.Equal(t, 0, vm.Stack.Depth())
}
