package chip8

// NumKeys is the number of keys on the hexadecimal keypad.
const NumKeys = 16

// Keypad mirrors the pressed/released state of the 16 physical keys. The
// input source writes it between executor steps; the executor only reads.
type Keypad struct {
	keys [NumKeys]bool
}

// Reset releases every key.
func (k *Keypad) Reset() {
	k.keys = [NumKeys]bool{}
}

// Set records key as pressed or released. Keys outside 0x0-0xF are ignored.
func (k *Keypad) Set(key uint8, down bool) {
	if key < NumKeys {
		k.keys[key] = down
	}
}

// Pressed reports whether key is currently down. Values outside the keypad
// range are never pressed.
func (k *Keypad) Pressed(key uint8) bool {
	return key < NumKeys && k.keys[key]
}

// FirstPressed returns the lowest-numbered key currently down.
func (k *Keypad) FirstPressed() (uint8, bool) {
	for key := uint8(0); key < NumKeys; key++ {
		if k.keys[key] {
			return key, true
		}
	}
	return 0, false
}
