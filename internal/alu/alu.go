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

// Package alu implements the arithmetic/logic core. All operands and
// results are 32-bit unsigned bit patterns; signed interpretation (DIV,
// SRA) is explicit at the point of use.
package alu

import "github.com/drchhhhhh/isasim/internal/regfile"

// Op identifies an ALU operation. Values match the low 4 bits of the
// instruction opcode, with MOVI mapped to Mov by the caller.
type Op int

const (
	Add Op = iota
	Sub
	And
	Or
	Xor
	Sll
	Srl
	Sra
	Slt
	Mul
	Div
	Mov
)

// OpFromOpcode derives the ALU operation from an instruction's low 4
// bits, mapping MOVI (0x19) to Mov.
func OpFromOpcode(opcode byte, isMovi bool) Op {
	if isMovi {
		return Mov
	}
	return Op(opcode & 0x0F)
}

// Result is a DivisionByZero-tolerant ALU result: div-by-zero is
// non-fatal, reported via DivByZero rather than an error return, so
// callers that don't care can ignore it.
type Result struct {
	Value      uint32
	DivByZero  bool
	CarryWrite bool // true for Add/Sub, which are the only ops that write Carry
}

// Execute performs op on the two 32-bit operands and updates flags on
// the given register file as a side effect.
func Execute(f *regfile.File, op Op, operand1, operand2 uint32) Result {
	var res Result
	var result uint32

	switch op {
	case Add:
		sum := uint64(operand1) + uint64(operand2)
		result = uint32(sum)
		f.Carry = sum > 0xFFFFFFFF
		res.CarryWrite = true
	case Sub:
		result = operand1 - operand2
		f.Carry = operand1 >= operand2
		res.CarryWrite = true
	case And:
		result = operand1 & operand2
	case Or:
		result = operand1 | operand2
	case Xor:
		result = operand1 ^ operand2
	case Sll:
		result = operand1 << (operand2 & 0x1F)
	case Srl:
		result = operand1 >> (operand2 & 0x1F)
	case Sra:
		shift := operand2 & 0x1F
		signed := int32(operand1)
		result = uint32(signed >> shift)
	case Slt:
		if operand1 < operand2 {
			result = 1
		} else {
			result = 0
		}
	case Mul:
		result = operand1 * operand2
	case Div:
		if operand2 == 0 {
			res.DivByZero = true
			result = 0
		} else {
			result = uint32(int32(operand1) / int32(operand2))
		}
	case Mov:
		result = operand2
	}

	f.UpdateFlags(result)
	res.Value = result
	return res
}
