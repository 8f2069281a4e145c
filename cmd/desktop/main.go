// Desktop frontend. Renders the 64x32 display with ebiten and maps the
// left side of a QWERTY keyboard onto the hex keypad.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/chip8"
)

// Standard CHIP-8 keyboard layout:
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   <-   Q W E R
//	7 8 9 E        A S D F
//	A 0 B F        Z X C V
var keyMap = map[ebiten.Key]uint8{
	ebiten.KeyDigit1: 0x1, ebiten.KeyDigit2: 0x2, ebiten.KeyDigit3: 0x3, ebiten.KeyDigit4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

type Game struct {
	vm *chip8.VM

	cycles int     // instructions per 60 Hz frame
	scale  float64 // display magnification

	screenImg *ebiten.Image // reused 64x32 canvas
}

func (g *Game) Update() error {
	for key, pad := range keyMap {
		g.vm.Keypad.Set(pad, ebiten.IsKeyPressed(key))
	}

	for i := 0; i < g.cycles; i++ {
		if err := g.vm.Step(); err != nil {
			return fmt.Errorf("execution halted: %w", err)
		}
	}

	g.vm.TickTimers()

	if g.vm.Beeping() {
		ebiten.SetWindowTitle("GoChip8 *BEEP*")
	} else {
		ebiten.SetWindowTitle("GoChip8")
	}

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(chip8.DisplayCols, chip8.DisplayRows)
	}

	g.screenImg.WritePixels(g.vm.Display.RGBA())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(g.scale, g.scale)
	screen.DrawImage(g.screenImg, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(float64(chip8.DisplayCols) * g.scale), int(float64(chip8.DisplayRows) * g.scale)
}

func createLogger(debug bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	}
	return log.NewWithConfig(cfg)
}

// loadROM reads a binary ROM, or assembles the file first if it carries
// an .asm extension.
func loadROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".asm") {
		program, _, err := asm.Assemble(string(data))
		if err != nil {
			return nil, fmt.Errorf("assembling ROM: %w", err)
		}
		return program, nil
	}

	return data, nil
}

func main() {
	cycles := flag.Int("cycles", 10, "instructions executed per 60 Hz frame")
	scale := flag.Int("scale", 10, "display magnification factor")
	seed := flag.Int64("seed", 0, "seed for the RND instruction")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := createLogger(*debug)

	if flag.NArg() != 1 {
		logger.Fatal("usage: desktop [flags] <rom.ch8|program.asm>")
	}
	romPath := flag.Arg(0)

	program, err := loadROM(romPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	vm := chip8.NewWithSeed(*seed)
	if err := vm.LoadProgram(program); err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	logger.Info("Starting",
		log.String("rom", romPath),
		log.Int("bytes", len(program)),
		log.Int("cycles_per_frame", *cycles))

	game := &Game{
		vm:     vm,
		cycles: *cycles,
		scale:  float64(*scale),
	}

	ebiten.SetWindowTitle("GoChip8")
	ebiten.SetWindowSize(chip8.DisplayCols**scale, chip8.DisplayRows**scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("Emulation stopped", log.Err(err))
	}
}
