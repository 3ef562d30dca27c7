// Command isasim is the CLI front end over the assembler, disassembler,
// and pipeline engine: assemble, disassemble, run, and trace
// subcommands.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drchhhhhh/isasim/internal/asm"
	"github.com/drchhhhhh/isasim/internal/history"
	"github.com/drchhhhhh/isasim/internal/memory"
	"github.com/drchhhhhh/isasim/internal/pipeline"
	"github.com/drchhhhhh/isasim/internal/regfile"
	"github.com/drchhhhhh/isasim/internal/simio"
)

var debugFlag bool

func main() {
	root := &cobra.Command{
		Use:   "isasim",
		Short: "assembler, disassembler, and pipeline simulator for the educational 32-bit ISA",
	}
	root.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging")

	root.AddCommand(assembleCmd(), disassembleCmd(), runCmd(), traceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func assembleCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "assemble <source.asm>",
		Short: "assemble a source file into a list of encoded instruction words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, errs := asm.Assemble(string(src))
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e)
				}
				return fmt.Errorf("assemble: %d error(s)", len(errs))
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			for _, word := range result.Words {
				fmt.Fprintf(w, "0x%08X\n", word)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write words to this file instead of stdout")
	return cmd
}

func disassembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disassemble <words-file>",
		Short: "disassemble a file of hex-encoded instruction words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := readWordsFile(args[0])
			if err != nil {
				return err
			}
			for _, w := range words {
				text, err := asm.Disassemble(w)
				if err != nil {
					return err
				}
				fmt.Println(text)
			}
			return nil
		},
	}
	return cmd
}

func runCmd() *cobra.Command {
	var maxCycles uint64
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "assemble (or load) and run a program to completion or a cycle limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := simio.NewLogger(debugFlag)
			words, err := loadProgramWords(args[0])
			if err != nil {
				return err
			}

			mem := memory.New(log)
			if err := mem.LoadProgram(words, memory.TextBase); err != nil {
				return err
			}
			regs := &regfile.File{}
			regs.SetSP(memory.StackTop)

			eng := pipeline.New(regs, mem, nil, log)
			stats := eng.Run(maxCycles)

			printStats(stats, eng)
			printRegisters(regs)
			if out := mem.ConsoleOutput(); len(out) > 0 {
				fmt.Printf("console: %q\n", out)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 100000, "stop after this many cycles even if the program hasn't halted")
	return cmd
}

func traceCmd() *cobra.Command {
	var maxCycles uint64
	var outPath string
	cmd := &cobra.Command{
		Use:   "trace <program>",
		Short: "run a program recording a full per-cycle history, saved to --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := simio.NewLogger(debugFlag)
			words, err := loadProgramWords(args[0])
			if err != nil {
				return err
			}

			mem := memory.New(log)
			if err := mem.LoadProgram(words, memory.TextBase); err != nil {
				return err
			}
			regs := &regfile.File{}
			regs.SetSP(memory.StackTop)

			rec := history.New()
			eng := pipeline.New(regs, mem, rec, log)
			stats := eng.Run(maxCycles)

			printStats(stats, eng)
			printRegisters(regs)

			if outPath != "" {
				if err := rec.Save(outPath); err != nil {
					return err
				}
				fmt.Printf("trace written to %s (%d cycles)\n", outPath, rec.Len())
			}
			if last, ok := rec.GetCycle(stats.Cycles); ok {
				simio.RenderCycleRecord(os.Stdout, last)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 100000, "stop after this many cycles even if the program hasn't halted")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the full JSON trace to this path")
	return cmd
}

func printStats(stats pipeline.Stats, eng *pipeline.Engine) {
	fmt.Printf("cycles=%d instructions_committed=%d stall_cycles=%d ipc=%.3f halted=%v\n",
		stats.Cycles, stats.InstructionsCommitted, stats.StallCycles, stats.IPC, eng.Halted())
	if err := eng.Fault(); err != nil {
		fmt.Fprintf(os.Stderr, "fault: %v\n", err)
	}
}

func printRegisters(regs *regfile.File) {
	snap := regs.Snapshot()
	for i, v := range snap {
		fmt.Printf("R%-2d = %d (0x%08X)\n", i, v, v)
	}
	fmt.Printf("SP = 0x%08X\n", regs.SP())
}

// loadProgramWords assembles path if it has a .asm extension, otherwise
// reads it as a hex words file.
func loadProgramWords(path string) ([]uint32, error) {
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		result, errs := asm.Assemble(string(src))
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			return nil, fmt.Errorf("assemble: %d error(s)", len(errs))
		}
		return result.Words, nil
	}
	return readWordsFile(path)
}

func readWordsFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		words = append(words, uint32(v))
	}
	return words, scanner.Err()
}
