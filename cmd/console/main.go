// Headless runner. Executes a ROM for a bounded number of steps and
// prints the final machine state, useful for testing ROMs in CI.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/chip8"
)

func createLogger(trace bool) *log.Logger {
	cfg := log.DefaultConfig()
	if trace {
		cfg.Level = log.DebugLevel
	}
	return log.NewWithConfig(cfg)
}

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

// run executes until maxSteps is reached, the machine faults, or it
// blocks on a key wait that headless mode can never satisfy. Timers are
// decremented once per cycles steps to approximate 60 Hz frames.
func run(vm *chip8.VM, logger *log.Logger, maxSteps, cycles int) error {
	for step := 0; step < maxSteps; step++ {
		pc := vm.Registers.PC

		if word, err := vm.Memory.ReadInstruction(pc); err == nil {
			if op, err := chip8.Decode(word); err == nil {
				logger.Debug("step",
					log.Hex("pc", pc),
					log.String("op", op.String()))
			}
		}

		if err := vm.Step(); err != nil {
			return err
		}

		if vm.Registers.PC == pc {
			logger.Info("Blocked on key wait, stopping", log.Hex("pc", pc))
			return nil
		}

		if cycles > 0 && (step+1)%cycles == 0 {
			vm.TickTimers()
		}
	}

	return nil
}

func dumpState(vm *chip8.VM, logger *log.Logger) {
	regs := make([]string, 0, chip8.NumRegisters)
	for i, v := range vm.Registers.V {
		regs = append(regs, fmt.Sprintf("V%X=%02X", i, v))
	}

	logger.Info("Final state",
		log.Hex("pc", vm.Registers.PC),
		log.Hex("i", vm.Registers.I),
		log.Int("stack_depth", vm.Stack.Depth()),
		log.String("registers", strings.Join(regs, " ")))
}

func renderDisplay(d *chip8.Display) string {
	var sb strings.Builder
	for y := 0; y < chip8.DisplayRows; y++ {
		for x := 0; x < chip8.DisplayCols; x++ {
			if d.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func main() {
	maxSteps := flag.Int("steps", 100000, "maximum number of instructions to execute")
	cycles := flag.Int("cycles", 10, "instructions per simulated 60 Hz frame")
	seed := flag.Int64("seed", 0, "seed for the RND instruction")
	trace := flag.Bool("trace", false, "log every executed instruction")
	show := flag.Bool("show", true, "print the final display as ASCII art")
	screenshot := flag.String("screenshot", "", "write the final display to a PNG file")
	flag.Parse()

	logger := createLogger(*trace)

	if flag.NArg() != 1 {
		logger.Fatal("usage: console [flags] <rom.ch8|program.asm>")
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

	if err := run(vm, logger, *maxSteps, *cycles); err != nil {
		logger.Error("Execution halted", log.Err(err))
	}

	dumpState(vm, logger)

	if *show {
		fmt.Print(renderDisplay(&vm.Display))
	}

	if *screenshot != "" {
		if err := vm.Display.SaveScreenshot(*screenshot); err != nil {
			logger.Fatal("Writing screenshot failed", log.Err(err))
		}
		logger.Info("Screenshot written", log.String("file", *screenshot))
	}
}
