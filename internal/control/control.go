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

// Package control implements the decoder: it turns a raw 32-bit
// instruction word into a Decoded record plus control signals that
// drive the rest of the pipeline.
package control

import "github.com/drchhhhhh/isasim/internal/isa"

// Signals are the boolean control lines the execute, memory, and
// writeback stages read off a decoded instruction.
type Signals struct {
	RegWrite bool
	MemRead  bool
	MemWrite bool
	ALUSrc   bool // use immediate for second ALU operand
	Branch   bool
	Jump     bool
	MemToReg bool
}

// Decoded is the full decode record for one instruction word.
type Decoded struct {
	Opcode    byte
	Dest      int
	Src1      int
	Src2      int
	Immediate int32
	Class     isa.Class
	Signals
	IsMovi bool
	IsHalt bool
	IsPush bool
	IsPop  bool

	// ReadReg1/ReadReg2 name the general registers this instruction
	// reads, pre-derived from its opcode so the pipeline never has to
	// re-inspect it to find them. WriteReg names the register RegWrite
	// writes, valid only when RegWrite is set.
	ReadReg1      int
	ReadReg1Valid bool
	ReadReg2      int
	ReadReg2Valid bool
	WriteReg      int
}

// Decode splits a 32-bit word into [opcode:8][dest:8][src1:8][src2_or_imm:8]
// and derives control signals from the opcode's class and form.
func Decode(word uint32) Decoded {
	opcode := byte(word >> 24)
	dest := int(byte(word >> 16))
	src1 := int(byte(word >> 8))
	src2byte := byte(word)

	d := Decoded{
		Opcode: opcode,
		Dest:   dest,
		Src1:   src1,
		Src2:   int(src2byte),
		Class:  isa.ClassOf(opcode),
	}

	info, known := isa.ByOpcode(opcode)
	usesImm8 := known && (info.Form == isa.FormImm || info.Form == isa.FormMovi ||
		info.Form == isa.FormMemOffset || info.Form == isa.FormPushPop ||
		info.Form == isa.FormBranch || info.Form == isa.FormJump ||
		info.Form == isa.FormIOPort)

	if usesImm8 {
		d.Immediate = int32(int8(src2byte))
	}

	switch d.Class {
	case isa.DataProcessing:
		d.RegWrite = true
		d.WriteReg = dest
		if opcode >= isa.OpADDI {
			d.ALUSrc = true
		}
		d.IsMovi = opcode == isa.OpMOVI
		if !d.IsMovi {
			d.ReadReg1, d.ReadReg1Valid = src1, true
			if !d.ALUSrc {
				d.ReadReg2, d.ReadReg2Valid = d.Src2, true
			}
		}
	case isa.MemoryAccess:
		switch opcode {
		case isa.OpLOAD:
			d.RegWrite = true
			d.MemRead = true
			d.MemToReg = true
			d.ALUSrc = true
			d.WriteReg = dest
			d.ReadReg1, d.ReadReg1Valid = src1, true
		case isa.OpPOP:
			d.RegWrite = true
			d.MemRead = true
			d.MemToReg = true
			d.ALUSrc = true
			d.WriteReg = dest
			d.IsPop = true
		case isa.OpSTORE:
			d.MemWrite = true
			d.ALUSrc = true
			d.ReadReg1, d.ReadReg1Valid = src1, true
			// The value to store rides in the dest field: the encoding
			// has only two register slots, and LOAD/STORE share the
			// slot naming even though STORE needs a base and a value
			// register rather than a base and a destination.
			d.ReadReg2, d.ReadReg2Valid = dest, true
		case isa.OpPUSH:
			d.MemWrite = true
			d.ALUSrc = true
			d.ReadReg1, d.ReadReg1Valid = dest, true
			d.IsPush = true
		}
	case isa.ControlFlow:
		switch opcode {
		case isa.OpJMP:
			d.Jump = true
		case isa.OpCALL:
			// CALL both jumps and, per the link-register convention
			// (isa.LinkRegister), writes the return address -- the
			// pipeline supplies pc+4 as the write value in EX.
			d.Jump = true
			d.RegWrite = true
			d.WriteReg = isa.LinkRegister
		case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE:
			d.Branch = true
			d.ReadReg1, d.ReadReg1Valid = dest, true
			d.ReadReg2, d.ReadReg2Valid = src1, true
		case isa.OpRET:
			d.Jump = true
			d.ReadReg1, d.ReadReg1Valid = isa.LinkRegister, true
		}
	case isa.System:
		switch opcode {
		case isa.OpHALT:
			d.IsHalt = true
		case isa.OpIOREAD:
			d.MemRead = true
			d.RegWrite = true
			d.WriteReg = dest
		case isa.OpIOWRITE:
			d.MemWrite = true
			d.ReadReg1, d.ReadReg1Valid = dest, true
		}
	}

	return d
}
