package chip8

import "fmt"

// Kind tags one of the decoded operations. The executor switches
// exhaustively over these; the decoder never produces anything else.
type Kind uint8

const (
	Cls     Kind = iota // 00E0 clear screen
	Ret                 // 00EE return from subroutine
	Jp                  // 1nnn jump
	Call                // 2nnn call subroutine
	SeByte              // 3xkk skip if Vx == kk
	SneByte             // 4xkk skip if Vx != kk
	SeReg               // 5xy0 skip if Vx == Vy
	LdByte              // 6xkk Vx = kk
	AddByte             // 7xkk Vx += kk
	LdReg               // 8xy0 Vx = Vy
	Or                  // 8xy1 Vx |= Vy
	And                 // 8xy2 Vx &= Vy
	Xor                 // 8xy3 Vx ^= Vy
	AddReg              // 8xy4 Vx += Vy, VF = carry
	Sub                 // 8xy5 Vx -= Vy, VF = no borrow
	Shr                 // 8xy6 Vx >>= 1, VF = old bit 0
	Subn                // 8xy7 Vx = Vy - Vx, VF = no borrow
	Shl                 // 8xyE Vx <<= 1, VF = old bit 7
	SneReg              // 9xy0 skip if Vx != Vy
	LdI                 // Annn I = nnn
	JpV0                // Bnnn jump to nnn + V0
	Rnd                 // Cxkk Vx = random byte & kk
	Drw                 // Dxyn draw n-byte sprite at (Vx, Vy)
	Skp                 // Ex9E skip if key Vx pressed
	Sknp                // ExA1 skip if key Vx not pressed
	LdFromDT            // Fx07 Vx = delay timer
	LdKey               // Fx0A wait for key press, Vx = key
	LdToDT              // Fx15 delay timer = Vx
	LdToST              // Fx18 sound timer = Vx
	AddI                // Fx1E I += Vx
	LdFont              // Fx29 I = font sprite address for digit Vx
	LdBCD               // Fx33 memory[I..I+2] = BCD of Vx
	Store               // Fx55 memory[I..I+x] = V0..Vx
	Load                // Fx65 V0..Vx = memory[I..I+x]
)

// Opcode is one decoded instruction word: the operation tag plus every
// operand field the word can carry. Register indices are 0-15 by
// construction, Addr fits in 12 bits.
type Opcode struct {
	Kind Kind
	X    uint8
	Y    uint8
	N    uint8
	KK   uint8
	Addr uint16
}

// Decode maps a 16-bit instruction word to its operation tag and operand
// fields. Words matching no pattern are a fatal fault of the guest
// program; execution must not continue past them.
func Decode(word uint16) (Opcode, error) {
	op := Opcode{
		X:    uint8(word >> 8 & 0xF),
		Y:    uint8(word >> 4 & 0xF),
		N:    uint8(word & 0xF),
		KK:   uint8(word & 0xFF),
		Addr: word & AddrMask,
	}

	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00E0:
			op.Kind = Cls
			return op, nil
		case 0x00EE:
			op.Kind = Ret
			return op, nil
		}
	case 0x1:
		op.Kind = Jp
		return op, nil
	case 0x2:
		op.Kind = Call
		return op, nil
	case 0x3:
		op.Kind = SeByte
		return op, nil
	case 0x4:
		op.Kind = SneByte
		return op, nil
	case 0x5:
		if op.N == 0 {
			op.Kind = SeReg
			return op, nil
		}
	case 0x6:
		op.Kind = LdByte
		return op, nil
	case 0x7:
		op.Kind = AddByte
		return op, nil
	case 0x8:
		switch op.N {
		case 0x0:
			op.Kind = LdReg
			return op, nil
		case 0x1:
			op.Kind = Or
			return op, nil
		case 0x2:
			op.Kind = And
			return op, nil
		case 0x3:
			op.Kind = Xor
			return op, nil
		case 0x4:
			op.Kind = AddReg
			return op, nil
		case 0x5:
			op.Kind = Sub
			return op, nil
		case 0x6:
			op.Kind = Shr
			return op, nil
		case 0x7:
			op.Kind = Subn
			return op, nil
		case 0xE:
			op.Kind = Shl
			return op, nil
		}
	case 0x9:
		if op.N == 0 {
			op.Kind = SneReg
			return op, nil
		}
	case 0xA:
		op.Kind = LdI
		return op, nil
	case 0xB:
		op.Kind = JpV0
		return op, nil
	case 0xC:
		op.Kind = Rnd
		return op, nil
	case 0xD:
		op.Kind = Drw
		return op, nil
	case 0xE:
		switch op.KK {
		case 0x9E:
			op.Kind = Skp
			return op, nil
		case 0xA1:
			op.Kind = Sknp
			return op, nil
		}
	case 0xF:
		switch op.KK {
		case 0x07:
			op.Kind = LdFromDT
			return op, nil
		case 0x0A:
			op.Kind = LdKey
			return op, nil
		case 0x15:
			op.Kind = LdToDT
			return op, nil
		case 0x18:
			op.Kind = LdToST
			return op, nil
		case 0x1E:
			op.Kind = AddI
			return op, nil
		case 0x29:
			op.Kind = LdFont
			return op, nil
		case 0x33:
			op.Kind = LdBCD
			return op, nil
		case 0x55:
			op.Kind = Store
			return op, nil
		case 0x65:
			op.Kind = Load
			return op, nil
		}
	}

	return Opcode{}, fmt.Errorf("%w: 0x%04X", ErrUnknownOpcode, word)
}

// String renders the opcode in conventional assembly syntax, matching what
// the assembler accepts.
func (o Opcode) String() string {
	switch o.Kind {
	case Cls:
		return "CLS"
	case Ret:
		return "RET"
	case Jp:
		return fmt.Sprintf("JP 0x%03X", o.Addr)
	case Call:
		return fmt.Sprintf("CALL 0x%03X", o.Addr)
	case SeByte:
		return fmt.Sprintf("SE V%X, 0x%02X", o.X, o.KK)
	case SneByte:
		return fmt.Sprintf("SNE V%X, 0x%02X", o.X, o.KK)
	case SeReg:
		return fmt.Sprintf("SE V%X, V%X", o.X, o.Y)
	case LdByte:
		return fmt.Sprintf("LD V%X, 0x%02X", o.X, o.KK)
	case AddByte:
		return fmt.Sprintf("ADD V%X, 0x%02X", o.X, o.KK)
	case LdReg:
		return fmt.Sprintf("LD V%X, V%X", o.X, o.Y)
	case Or:
		return fmt.Sprintf("OR V%X, V%X", o.X, o.Y)
	case And:
		return fmt.Sprintf("AND V%X, V%X", o.X, o.Y)
	case Xor:
		return fmt.Sprintf("XOR V%X, V%X", o.X, o.Y)
	case AddReg:
		return fmt.Sprintf("ADD V%X, V%X", o.X, o.Y)
	case Sub:
		return fmt.Sprintf("SUB V%X, V%X", o.X, o.Y)
	case Shr:
		return fmt.Sprintf("SHR V%X", o.X)
	case Subn:
		return fmt.Sprintf("SUBN V%X, V%X", o.X, o.Y)
	case Shl:
		return fmt.Sprintf("SHL V%X", o.X)
	case SneReg:
		return fmt.Sprintf("SNE V%X, V%X", o.X, o.Y)
	case LdI:
		return fmt.Sprintf("LD I, 0x%03X", o.Addr)
	case JpV0:
		return fmt.Sprintf("JP V0, 0x%03X", o.Addr)
	case Rnd:
		return fmt.Sprintf("RND V%X, 0x%02X", o.X, o.KK)
	case Drw:
		return fmt.Sprintf("DRW V%X, V%X, %d", o.X, o.Y, o.N)
	case Skp:
		return fmt.Sprintf("SKP V%X", o.X)
	case Sknp:
		return fmt.Sprintf("SKNP V%X", o.X)
	case LdFromDT:
		return fmt.Sprintf("LD V%X, DT", o.X)
	case LdKey:
		return fmt.Sprintf("LD V%X, K", o.X)
	case LdToDT:
		return fmt.Sprintf("LD DT, V%X", o.X)
	case LdToST:
		return fmt.Sprintf("LD ST, V%X", o.X)
	case AddI:
		return fmt.Sprintf("ADD I, V%X", o.X)
	case LdFont:
		return fmt.Sprintf("LD F, V%X", o.X)
	case LdBCD:
		return fmt.Sprintf("LD B, V%X", o.X)
	case Store:
		return fmt.Sprintf("LD [I], V%X", o.X)
	case Load:
		return fmt.Sprintf("LD V%X, [I]", o.X)
	}
	return fmt.Sprintf("Kind(%d)", o.Kind)
}
