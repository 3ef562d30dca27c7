package pipeline_test

import (
	"testing"

	"github.com/drchhhhhh/isasim/internal/asm"
	"github.com/drchhhhhh/isasim/internal/memory"
	"github.com/drchhhhhh/isasim/internal/pipeline"
	"github.com/drchhhhhh/isasim/internal/regfile"
)

func build(t *testing.T, source string) (*pipeline.Engine, *regfile.File, *memory.Memory) {
	t.Helper()
	result, errs := asm.Assemble(source)
	if len(errs) > 0 {
		t.Fatalf("assemble: %v", errs)
	}
	mem := memory.New(nil)
	if err := mem.LoadProgram(result.Words, memory.TextBase); err != nil {
		t.Fatalf("load program: %v", err)
	}
	regs := &regfile.File{}
	regs.SetSP(memory.StackTop)
	return pipeline.New(regs, mem, nil, nil), regs, mem
}

func TestDataProcessingSequence(t *testing.T) {
	eng, regs, _ := build(t, `
MOVI R1, #7
MOVI R2, #5
ADD R3, R1, R2
HALT
`)
	stats := eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(1); got != 7 {
		t.Errorf("R1 = %d, want 7", got)
	}
	if got := regs.Read(2); got != 5 {
		t.Errorf("R2 = %d, want 5", got)
	}
	if got := regs.Read(3); got != 12 {
		t.Errorf("R3 = %d, want 12", got)
	}
	if regs.Zero {
		t.Errorf("zero flag = true, want false")
	}
	if stats.InstructionsCommitted != 4 {
		t.Errorf("instructions_committed = %d, want 4", stats.InstructionsCommitted)
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	eng, regs, mem := build(t, `
MOVI R1, #42
STORE R1, [R0 + 16]
LOAD R2, [R0 + 16]
HALT
`)
	eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(2); got != 42 {
		t.Errorf("R2 = %d, want 42", got)
	}
	w, err := mem.ReadWord(memory.TextBase + 16)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if w != 42 {
		t.Errorf("memory[16] = %d, want 42", w)
	}
}

func TestLoadUseHazardStalls(t *testing.T) {
	eng, regs, _ := build(t, `
MOVI R1, #8
STORE R1, [R0 + 32]
LOAD R2, [R0 + 32]
ADD R3, R2, R1
HALT
`)
	stats := eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(3); got != 16 {
		t.Errorf("R3 = %d, want 16", got)
	}
	if stats.StallCycles < 1 {
		t.Errorf("stall_cycles = %d, want >= 1", stats.StallCycles)
	}
}

func TestForwardingAvoidsStall(t *testing.T) {
	eng, regs, _ := build(t, `
MOVI R1, #3
ADDI R2, R1, #4
ADDI R3, R2, #5
HALT
`)
	stats := eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(1); got != 3 {
		t.Errorf("R1 = %d, want 3", got)
	}
	if got := regs.Read(2); got != 7 {
		t.Errorf("R2 = %d, want 7", got)
	}
	if got := regs.Read(3); got != 12 {
		t.Errorf("R3 = %d, want 12", got)
	}
	if stats.StallCycles != 0 {
		t.Errorf("stall_cycles = %d, want 0", stats.StallCycles)
	}
}

func TestBranchTakenFlushesNextInstruction(t *testing.T) {
	eng, regs, _ := build(t, `
MOVI R1, #1
MOVI R2, #1
BEQ R1, R2, skip
MOVI R3, #99
skip: MOVI R4, #7
HALT
`)
	eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(3); got != 0 {
		t.Errorf("R3 = %d, want 0 (branch should have skipped its write)", got)
	}
	if got := regs.Read(4); got != 7 {
		t.Errorf("R4 = %d, want 7", got)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	eng, regs, _ := build(t, `
MOVI R1, #99
PUSH R1
MOVI R1, #0
POP R2
HALT
`)
	eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(2); got != 99 {
		t.Errorf("R2 = %d, want 99", got)
	}
	if got := regs.SP(); got != memory.StackTop {
		t.Errorf("SP = 0x%08X, want back at StackTop 0x%08X", got, memory.StackTop)
	}
}

func TestCallRetLinkRegister(t *testing.T) {
	eng, regs, _ := build(t, `
CALL sub
MOVI R2, #5
HALT
sub: MOVI R1, #1
RET
`)
	eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(1); got != 1 {
		t.Errorf("R1 = %d, want 1", got)
	}
	if got := regs.Read(2); got != 5 {
		t.Errorf("R2 = %d, want 5", got)
	}
}

func TestDivisionByZeroIsNonFatal(t *testing.T) {
	eng, regs, _ := build(t, `
MOVI R1, #10
MOVI R2, #0
DIV R3, R1, R2
MOVI R4, #1
HALT
`)
	eng.Run(1000)
	if !eng.Halted() {
		t.Fatalf("engine did not halt")
	}
	if got := regs.Read(3); got != 0 {
		t.Errorf("R3 = %d, want 0 on division by zero", got)
	}
	if got := regs.Read(4); got != 1 {
		t.Errorf("R4 = %d, want 1 (execution continued past the faulting DIV)", got)
	}
}
