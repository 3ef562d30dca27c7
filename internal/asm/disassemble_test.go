package asm

import "testing"

func TestDisassembleUnknownOpcode(t *testing.T) {
	text, err := Disassemble(0xFFFFFFFF)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if want := "UNKNOWN (0xFFFFFFFF)"; text != want {
		t.Errorf("Disassemble(0xFFFFFFFF) = %q, want %q", text, want)
	}
}

func TestDisassembleBranchAndJumpImmediateForm(t *testing.T) {
	word := pack(0x41 /* BEQ */, 1, 2, 0xFE) // displacement -2
	text, err := Disassemble(word)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if text != "BEQ R1, R2, -2" {
		t.Errorf("Disassemble = %q, want %q", text, "BEQ R1, R2, -2")
	}
}
