//go:build !js

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
	"gochip8/pkg/chip8"
)

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output ROM file path (default: input with .ch8 extension)")
	runProgram := flag.Bool("run", false, "run the assembled ROM headless after assembling")
	runBinPath := flag.String("run-bin", "", "run an existing ROM file headless")
	steps := flag.Int("steps", 100000, "maximum number of instructions for headless runs")
	seed := flag.Int64("seed", 0, "seed for the RND instruction")
	flag.Parse()

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		source, err := os.ReadFile(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
			os.Exit(1)
		}

		code, _, err := asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly failed: %v\n", err)
			os.Exit(1)
		}

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

		if err := os.WriteFile(output, code, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write ROM file %q: %v\n", output, err)
			os.Exit(1)
		}

		fmt.Printf("assembled %d bytes -> %s\n", len(code), output)
		assembledOutput = output
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, or -run-bin <file> to run an existing ROM")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	if err := runROM(runTarget, *steps, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", runTarget, err)
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

// runROM executes a ROM without a display until it finishes its step
// budget, faults, or blocks waiting for a key press.
func runROM(path string, maxSteps int, seed int64) error {
	program, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	vm := chip8.NewWithSeed(seed)
	if err := vm.LoadProgram(program); err != nil {
		return err
	}

	for step := 0; step < maxSteps; step++ {
		pc := vm.Registers.PC
		if err := vm.Step(); err != nil {
			return err
		}
		if vm.Registers.PC == pc {
			// Key wait cannot be satisfied without a keyboard.
			break
		}
		vm.TickTimers()
	}

	fmt.Printf(
		"run complete (%s): PC=0x%03X I=0x%03X V0=0x%02X V1=0x%02X V2=0x%02X V3=0x%02X VF=0x%02X\n",
		path,
		vm.Registers.PC,
		vm.Registers.I,
		vm.Registers.V[0],
		vm.Registers.V[1],
		vm.Registers.V[2],
		vm.Registers.V[3],
		vm.Registers.V[chip8.FlagRegister],
	)

	return nil
}
