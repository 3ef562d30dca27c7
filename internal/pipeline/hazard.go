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

package pipeline

import (
	"github.com/drchhhhhh/isasim/internal/control"
	"github.com/drchhhhhh/isasim/internal/isa"
)

// loadUseStall reports the classic load-use hazard: the instruction in
// ID/EX is a load whose destination the instruction now in IF/ID reads
// as a source.
func loadUseStall(idex IDEX, incoming control.Decoded) bool {
	if !idex.Valid || !idex.Decoded.MemRead || idex.Decoded.WriteReg == 0 {
		return false
	}
	reg := idex.Decoded.WriteReg
	return (incoming.ReadReg1Valid && incoming.ReadReg1 == reg) ||
		(incoming.ReadReg2Valid && incoming.ReadReg2 == reg)
}

// mulDivStall implements a conservative MUL-then-DIV safety stall: MUL
// sitting in EX/MEM, with DIV now in IF/ID reading MUL's destination.
func mulDivStall(exmem EXMEM, incoming control.Decoded) bool {
	if !exmem.Valid || exmem.Decoded.Opcode != isa.OpMUL || !exmem.Decoded.RegWrite {
		return false
	}
	if incoming.Opcode != isa.OpDIV {
		return false
	}
	reg := exmem.Decoded.WriteReg
	return (incoming.ReadReg1Valid && incoming.ReadReg1 == reg) ||
		(incoming.ReadReg2Valid && incoming.ReadReg2 == reg)
}

// forward resolves reg against EX/MEM then MEM/WB, EX/MEM taking
// priority as the more recent result. MEM/WB's forwarded value comes
// from mem_data for a load, otherwise alu_result; EX/MEM always
// forwards alu_result since a load's data isn't available until MEM.
func forward(reg int, exmem EXMEM, memwb MEMWB) (uint32, bool) {
	if reg == 0 {
		return 0, false
	}
	if exmem.Valid && exmem.Decoded.RegWrite && exmem.Decoded.WriteReg == reg {
		return exmem.ALUResult, true
	}
	if memwb.Valid && memwb.Decoded.RegWrite && memwb.Decoded.WriteReg == reg {
		if memwb.Decoded.MemToReg {
			return memwb.MemData, true
		}
		return memwb.ALUResult, true
	}
	return 0, false
}
