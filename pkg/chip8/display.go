package chip8

import "math/bits"

const (
	// DisplayRows is the framebuffer height in pixels.
	DisplayRows = 32

	// DisplayCols is the framebuffer width in pixels.
	DisplayCols = 64
)

// Display is the monochrome framebuffer: one 64-bit mask per row, bit c of
// a row being the pixel in column c. Only the low 64 bits of a row carry
// meaning, which the representation enforces by construction.
type Display struct {
	Rows [DisplayRows]uint64
}

// Clear zeroes every row.
func (d *Display) Clear() {
	d.Rows = [DisplayRows]uint64{}
}

// Pixel reports whether the pixel at column x, row y is set. Coordinates
// wrap toroidally.
func (d *Display) Pixel(x, y int) bool {
	return d.Rows[y%DisplayRows]&(1<<(x%DisplayCols)) != 0
}

// DrawSprite XOR-blits sprite rows starting at column x, row y. Each byte
// is one 8-pixel row; placement wraps toroidally on both axes via a 64-bit
// rotate. Returns true if any set pixel was erased by the blit.
func (d *Display) DrawSprite(x, y int, sprite []byte) bool {
	collision := false
	for i, b := range sprite {
		row := (y + i) % DisplayRows
		mask := bits.RotateLeft64(uint64(b), x%DisplayCols)
		if d.Rows[row]&mask != 0 {
			collision = true
		}
		d.Rows[row] ^= mask
	}
	return collision
}
