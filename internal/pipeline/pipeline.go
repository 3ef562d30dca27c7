/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public
License along with this program. If not, see
<http://www.gnu.org/licenses/>.
*/

// Package pipeline drives the classic five-stage engine -- fetch,
// decode, execute, memory, writeback -- over an internal/isa program
// held in internal/memory, with load-use and MUL/DIV stalling, ID-stage
// forwarding, and branch/jump flush.
package pipeline

import (
	"fmt"

	"github.com/drchhhhhh/isasim/internal/alu"
	"github.com/drchhhhhh/isasim/internal/control"
	"github.com/drchhhhhh/isasim/internal/history"
	"github.com/drchhhhhh/isasim/internal/isa"
	"github.com/drchhhhhh/isasim/internal/memory"
	"github.com/drchhhhhh/isasim/internal/regfile"
	"github.com/sirupsen/logrus"
)

// Stats summarizes one run for reporting.
type Stats struct {
	Cycles                uint64
	InstructionsCommitted uint64
	StallCycles           uint64
	IPC                   float64
}

// Engine is the five-stage pipeline: current latches, next-cycle
// latches being built by this Tick, and the architectural state they
// operate on.
type Engine struct {
	Regs *regfile.File
	Mem  *memory.Memory

	ifid  IFID
	idex  IDEX
	exmem EXMEM
	memwb MEMWB

	nextIFID  IFID
	nextIDEX  IDEX
	nextEXMEM EXMEM
	nextMEMWB MEMWB

	flushPending bool
	haltSeen     bool
	halted       bool
	fault        error

	cycle                 uint64
	instructionsCommitted uint64
	stallCycles           uint64

	history *history.Recorder
	log     *logrus.Logger
}

// New builds an engine over regs and mem. rec and log may be nil.
func New(regs *regfile.File, mem *memory.Memory, rec *history.Recorder, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{Regs: regs, Mem: mem, history: rec, log: log}
}

// Halted reports whether HALT has committed, or a fault stopped the run.
func (e *Engine) Halted() bool { return e.halted }

// Fault returns the fatal error that stopped the run, if any.
func (e *Engine) Fault() error { return e.fault }

// Stats reports the running totals as of the last Tick.
func (e *Engine) Stats() Stats {
	s := Stats{Cycles: e.cycle, InstructionsCommitted: e.instructionsCommitted, StallCycles: e.stallCycles}
	if e.cycle > 0 {
		s.IPC = float64(e.instructionsCommitted) / float64(e.cycle)
	}
	return s
}

// Run ticks the engine until it halts or maxCycles is reached,
// whichever comes first.
func (e *Engine) Run(maxCycles uint64) Stats {
	for i := uint64(0); i < maxCycles && !e.halted; i++ {
		e.Tick()
	}
	return e.Stats()
}

// Tick advances every stage by one cycle, in reverse pipeline order
// (writeback, memory, execute, decode, fetch) so that a stage always
// reads the latch state left behind by the previous cycle before the
// same cycle's earlier stages overwrite it.
func (e *Engine) Tick() bool {
	if e.halted {
		return false
	}
	e.cycle++

	if e.history != nil {
		e.history.BeginCycle(e.cycle, e.Regs.PC(), e.Regs.Snapshot(), e.Regs.Flags)
	}

	e.doWriteback()
	e.doMemory()
	e.doExecute()
	stall := e.doDecode()
	e.doFetch(stall)

	e.ifid, e.idex, e.exmem, e.memwb = e.nextIFID, e.nextIDEX, e.nextEXMEM, e.nextMEMWB

	if e.history != nil {
		e.recordLatches()
	}

	return !e.halted
}

func (e *Engine) recordLatches() {
	e.history.RecordLatch("IFID", history.LatchSnapshot{"valid": e.ifid.Valid, "pc": e.ifid.PC, "word": e.ifid.Word})
	e.history.RecordLatch("IDEX", history.LatchSnapshot{
		"valid": e.idex.Valid, "pc": e.idex.PC, "opcode": e.idex.Decoded.Opcode,
		"src1_val": e.idex.Src1Val, "src2_val": e.idex.Src2Val,
	})
	e.history.RecordLatch("EXMEM", history.LatchSnapshot{
		"valid": e.exmem.Valid, "pc": e.exmem.PC, "opcode": e.exmem.Decoded.Opcode,
		"alu_result": e.exmem.ALUResult, "store_value": e.exmem.StoreValue,
	})
	e.history.RecordLatch("MEMWB", history.LatchSnapshot{
		"valid": e.memwb.Valid, "pc": e.memwb.PC, "opcode": e.memwb.Decoded.Opcode,
		"alu_result": e.memwb.ALUResult, "mem_data": e.memwb.MemData,
	})
}

// doFetch reads the instruction at PC into the fetch/decode latch,
// unless a flush or stall or a seen HALT says otherwise.
func (e *Engine) doFetch(stall bool) {
	if e.flushPending {
		e.nextIFID.Clear()
		e.flushPending = false
		return
	}
	if stall {
		e.nextIFID = e.ifid
		e.stallCycles++
		return
	}
	if e.haltSeen {
		e.nextIFID.Clear()
		return
	}

	pc := e.Regs.PC()
	word, err := e.Mem.ReadWord(pc)
	if err != nil {
		e.fail(fmt.Errorf("fetch at 0x%08X: %w", pc, err))
		e.nextIFID.Clear()
		return
	}
	if e.history != nil {
		e.history.RecordRead(e.cycle, "fetch", "pc", pc)
	}
	e.nextIFID = IFID{Valid: true, PC: pc, Word: word}
	e.Regs.SetPC(pc + 4)
}

// doDecode decodes the fetch/decode latch, applies ID-stage forwarding,
// and checks both hazard stalls. It reports whether a stall must freeze
// fetch this cycle.
func (e *Engine) doDecode() bool {
	if e.flushPending {
		e.nextIDEX.Clear()
		return false
	}
	if !e.ifid.Valid {
		e.nextIDEX.Clear()
		return false
	}

	decoded := control.Decode(e.ifid.Word)
	if decoded.IsHalt {
		e.haltSeen = true
	}

	if loadUseStall(e.idex, decoded) || mulDivStall(e.exmem, decoded) {
		e.nextIDEX.Clear()
		return true
	}

	var src1, src2 uint32
	if decoded.ReadReg1Valid {
		src1 = e.resolveOperand(decoded.ReadReg1)
	}
	if decoded.ReadReg2Valid {
		src2 = e.resolveOperand(decoded.ReadReg2)
	}

	e.nextIDEX = IDEX{Valid: true, PC: e.ifid.PC, Decoded: decoded, Src1Val: src1, Src2Val: src2}
	return false
}

// resolveOperand forwards from the EX/MEM and MEM/WB results that this
// cycle's execute and memory stages have just produced (they run before
// decode), so a result reaches the instruction directly behind it.
func (e *Engine) resolveOperand(reg int) uint32 {
	if v, ok := forward(reg, e.nextEXMEM, e.nextMEMWB); ok {
		return v
	}
	v := e.Regs.Read(reg)
	if e.history != nil {
		e.history.RecordRead(e.cycle, "decode", fmt.Sprintf("%d", reg), v)
	}
	return v
}

// doExecute runs the ALU, resolves branch/jump targets and taken-ness,
// and performs the implicit stack-pointer arithmetic for PUSH/POP.
func (e *Engine) doExecute() {
	if !e.idex.Valid {
		e.nextEXMEM.Clear()
		return
	}
	d := e.idex.Decoded

	var aluResult, storeValue uint32
	var divByZero bool
	flush := false

	switch d.Class {
	case isa.DataProcessing:
		operand2 := e.idex.Src2Val
		if d.ALUSrc {
			operand2 = uint32(d.Immediate)
		}
		res := alu.Execute(e.Regs, alu.OpFromOpcode(d.Opcode, d.IsMovi), e.idex.Src1Val, operand2)
		aluResult = res.Value
		divByZero = res.DivByZero
		if divByZero {
			e.log.Warnf("division by zero at pc=0x%08X; result is 0", e.idex.PC)
		}

	case isa.MemoryAccess:
		switch {
		case d.IsPush:
			sp := e.Regs.SP() - 4
			e.Regs.SetSP(sp)
			aluResult = sp
			storeValue = e.idex.Src1Val
		case d.IsPop:
			aluResult = e.Regs.SP()
			e.Regs.SetSP(e.Regs.SP() + 4)
		default: // LOAD, STORE
			aluResult = e.idex.Src1Val + uint32(d.Immediate)
			if d.MemWrite {
				storeValue = e.idex.Src2Val
			}
		}

	case isa.ControlFlow:
		target := branchTarget(e.idex.PC, d.Immediate)
		switch d.Opcode {
		case isa.OpRET:
			e.Regs.SetPC(e.idex.Src1Val)
			flush = true
		case isa.OpCALL:
			aluResult = e.idex.PC + 4
			e.Regs.SetPC(target)
			flush = true
		case isa.OpJMP:
			e.Regs.SetPC(target)
			flush = true
		default: // BEQ, BNE, BLT, BGE
			if branchTaken(d.Opcode, e.idex.Src1Val, e.idex.Src2Val) {
				e.Regs.SetPC(target)
				flush = true
			}
		}

	case isa.System:
		switch d.Opcode {
		case isa.OpIOREAD:
			aluResult = memory.IOBase + uint32(byte(d.Immediate))*4
		case isa.OpIOWRITE:
			aluResult = memory.IOBase + uint32(byte(d.Immediate))*4
			storeValue = e.idex.Src1Val
		}
	}

	e.flushPending = flush
	e.nextEXMEM = EXMEM{Valid: true, PC: e.idex.PC, Decoded: d, ALUResult: aluResult, StoreValue: storeValue, DivByZero: divByZero}
}

// doMemory performs the single mem_read or mem_write the execute/memory
// latch calls for. A Memory error here is fatal.
func (e *Engine) doMemory() {
	if !e.exmem.Valid {
		e.nextMEMWB.Clear()
		return
	}
	d := e.exmem.Decoded
	var memData uint32

	switch {
	case d.MemRead:
		w, err := e.Mem.ReadWord(e.exmem.ALUResult)
		if err != nil {
			e.fail(fmt.Errorf("memory read at 0x%08X: %w", e.exmem.ALUResult, err))
			break
		}
		memData = w
		if e.history != nil {
			e.history.RecordRead(e.cycle, "memory", "mem", memData)
		}
	case d.MemWrite:
		if err := e.Mem.WriteWord(e.exmem.ALUResult, e.exmem.StoreValue); err != nil {
			e.fail(fmt.Errorf("memory write at 0x%08X: %w", e.exmem.ALUResult, err))
			break
		}
		if e.history != nil {
			e.history.RecordWrite(e.cycle, "memory", "mem", e.exmem.StoreValue)
		}
	}

	e.nextMEMWB = MEMWB{Valid: true, PC: e.exmem.PC, Decoded: d, ALUResult: e.exmem.ALUResult, MemData: memData}
}

// doWriteback commits the memory/writeback latch's result to the
// register file and counts the instruction as committed.
func (e *Engine) doWriteback() {
	if !e.memwb.Valid {
		return
	}
	d := e.memwb.Decoded

	if d.RegWrite && d.WriteReg != 0 {
		v := e.memwb.ALUResult
		if d.MemToReg {
			v = e.memwb.MemData
		}
		e.Regs.Write(d.WriteReg, v)
		if e.history != nil {
			e.history.RecordWrite(e.cycle, "writeback", fmt.Sprintf("%d", d.WriteReg), v)
		}
	}
	e.instructionsCommitted++
	if d.IsHalt {
		e.halted = true
	}
}

func (e *Engine) fail(err error) {
	if e.fault == nil {
		e.fault = err
	}
	e.halted = true
}

func branchTarget(pc uint32, imm int32) uint32 {
	return uint32(int64(pc) + int64(imm)<<2)
}

func branchTaken(opcode byte, a, b uint32) bool {
	switch opcode {
	case isa.OpBEQ:
		return a == b
	case isa.OpBNE:
		return a != b
	case isa.OpBLT:
		return a < b
	case isa.OpBGE:
		return a >= b
	default:
		return false
	}
}
