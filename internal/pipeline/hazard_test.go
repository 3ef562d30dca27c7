package pipeline

import (
	"testing"

	"github.com/drchhhhhh/isasim/internal/control"
	"github.com/drchhhhhh/isasim/internal/isa"
)

func TestLoadUseStall(t *testing.T) {
	idex := IDEX{Valid: true, Decoded: control.Decoded{Signals: control.Signals{MemRead: true}, WriteReg: 3}}
	incoming := control.Decoded{ReadReg1: 3, ReadReg1Valid: true}
	if !loadUseStall(idex, incoming) {
		t.Errorf("expected a stall when the incoming instruction reads the load's destination")
	}

	noConflict := control.Decoded{ReadReg1: 4, ReadReg1Valid: true}
	if loadUseStall(idex, noConflict) {
		t.Errorf("no stall expected when registers don't overlap")
	}

	if loadUseStall(IDEX{}, incoming) {
		t.Errorf("no stall expected from an empty ID/EX latch")
	}
}

func TestMulDivStall(t *testing.T) {
	exmem := EXMEM{Valid: true, Decoded: control.Decoded{Opcode: isa.OpMUL, Signals: control.Signals{RegWrite: true}, WriteReg: 2}}
	incomingDiv := control.Decoded{Opcode: isa.OpDIV, ReadReg1: 2, ReadReg1Valid: true}
	if !mulDivStall(exmem, incomingDiv) {
		t.Errorf("expected a stall when DIV reads MUL's destination")
	}

	incomingAdd := control.Decoded{Opcode: isa.OpADD, ReadReg1: 2, ReadReg1Valid: true}
	if mulDivStall(exmem, incomingAdd) {
		t.Errorf("no stall expected for a non-DIV instruction")
	}
}

func TestForwardFromEXMEM(t *testing.T) {
	exmem := EXMEM{Valid: true, Decoded: control.Decoded{Signals: control.Signals{RegWrite: true}, WriteReg: 7}, ALUResult: 100}
	v, ok := forward(7, exmem, MEMWB{})
	if !ok || v != 100 {
		t.Errorf("forward = %d, %v, want 100, true", v, ok)
	}
}

func TestForwardFromMEMWBLoad(t *testing.T) {
	memwb := MEMWB{Valid: true, Decoded: control.Decoded{Signals: control.Signals{RegWrite: true, MemToReg: true}, WriteReg: 7}, MemData: 55, ALUResult: 999}
	v, ok := forward(7, EXMEM{}, memwb)
	if !ok || v != 55 {
		t.Errorf("forward = %d, %v, want mem_data 55, true", v, ok)
	}
}

func TestForwardPrefersEXMEMOverMEMWB(t *testing.T) {
	exmem := EXMEM{Valid: true, Decoded: control.Decoded{Signals: control.Signals{RegWrite: true}, WriteReg: 7}, ALUResult: 1}
	memwb := MEMWB{Valid: true, Decoded: control.Decoded{Signals: control.Signals{RegWrite: true}, WriteReg: 7}, ALUResult: 2}
	v, ok := forward(7, exmem, memwb)
	if !ok || v != 1 {
		t.Errorf("forward = %d, %v, want EX/MEM's 1, true", v, ok)
	}
}

func TestForwardRegisterZeroNeverForwarded(t *testing.T) {
	exmem := EXMEM{Valid: true, Decoded: control.Decoded{Signals: control.Signals{RegWrite: true}, WriteReg: 0}, ALUResult: 42}
	if _, ok := forward(0, exmem, MEMWB{}); ok {
		t.Errorf("register 0 should never be reported as forwarded")
	}
}
