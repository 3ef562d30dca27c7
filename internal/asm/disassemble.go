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

package asm

import (
	"fmt"

	"github.com/drchhhhhh/isasim/internal/isa"
)

// Disassemble reverses a single encoded word back to text, by a
// reverse table lookup on the high 8 bits. Branch and jump targets are
// emitted as signed decimal displacements rather than resolved labels,
// since no symbol table survives past assembly. An opcode the table
// doesn't recognize disassembles to a placeholder rather than
// erroring, so a dump of memory that includes data words never aborts
// partway through.
func Disassemble(word uint32) (string, error) {
	opcode := byte(word >> 24)
	dest := byte(word >> 16)
	src1 := byte(word >> 8)
	src2 := byte(word)

	info, ok := isa.ByOpcode(opcode)
	if !ok {
		return fmt.Sprintf("UNKNOWN (0x%08X)", word), nil
	}

	imm := int32(int8(src2))

	switch info.Form {
	case isa.FormReg3:
		return fmt.Sprintf("%s R%d, R%d, R%d", info.Mnemonic, dest, src1, src2), nil
	case isa.FormImm:
		return fmt.Sprintf("%s R%d, R%d, #%d", info.Mnemonic, dest, src1, imm), nil
	case isa.FormMovi:
		return fmt.Sprintf("%s R%d, #%d", info.Mnemonic, dest, imm), nil
	case isa.FormMemOffset:
		return fmt.Sprintf("%s R%d, [R%d + %d]", info.Mnemonic, dest, src1, imm), nil
	case isa.FormPushPop:
		return fmt.Sprintf("%s R%d", info.Mnemonic, dest), nil
	case isa.FormBranch:
		return fmt.Sprintf("%s R%d, R%d, %d", info.Mnemonic, dest, src1, imm), nil
	case isa.FormJump:
		return fmt.Sprintf("%s %d", info.Mnemonic, imm), nil
	case isa.FormNoOperand:
		return info.Mnemonic, nil
	case isa.FormIOPort:
		return fmt.Sprintf("%s R%d, #%d", info.Mnemonic, dest, src2), nil
	default:
		return "", fmt.Errorf("internal error: unhandled form for %q", info.Mnemonic)
	}
}
