package chip8

import (
	"image"
	"image/png"
	"os"
)

// RGBA decodes the framebuffer into a 64x32 RGBA8888 byte slice (length
// 64*32*4), white pixels on black. Renderers hand this straight to their
// texture upload.
func (d *Display) RGBA() []byte {
	pixels := make([]byte, DisplayCols*DisplayRows*4)
	for y := 0; y < DisplayRows; y++ {
		row := d.Rows[y]
		for x := 0; x < DisplayCols; x++ {
			i := (y*DisplayCols + x) * 4
			if row&(1<<x) != 0 {
				pixels[i+0] = 0xFF
				pixels[i+1] = 0xFF
				pixels[i+2] = 0xFF
			}
			pixels[i+3] = 0xFF
		}
	}
	return pixels
}

// Image returns the framebuffer as an *image.RGBA.
func (d *Display) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    d.RGBA(),
		Stride: DisplayCols * 4,
		Rect:   image.Rect(0, 0, DisplayCols, DisplayRows),
	}
}

// SaveScreenshot encodes the framebuffer as a PNG and writes it to
// filename.
func (d *Display) SaveScreenshot(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, d.Image())
}
