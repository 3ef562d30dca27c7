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

// Package asm implements the two-pass assembler and the symmetric
// disassembler for the fixed 32-bit
// [opcode|dest|src1|src2_or_imm] instruction layout.
package asm

import (
	"github.com/drchhhhhh/isasim/internal/asmtoken"
	"github.com/drchhhhhh/isasim/internal/isa"
)

// Result is the outcome of a successful Assemble call.
type Result struct {
	Words  []uint32
	Symbols *SymbolTable
}

// Assemble translates source into a sequence of encoded instruction
// words. On any error it returns a nil Result and the full batch of
// AssembleErrors collected across both passes rather than stopping at
// the first one. A line that does not begin with a label or a mnemonic
// is the exception: it ends scanning at once, and that single error is
// returned without running either pass.
func Assemble(source string) (*Result, []*AssembleError) {
	lines, err := scanLines(source)
	if err != nil {
		return nil, []*AssembleError{err.(*AssembleError)}
	}

	symtab := NewSymbolTable()
	var errs []*AssembleError

	// First pass: bind labels to addresses.
	address := uint32(0)
	for _, ln := range lines {
		if ln.Label != "" {
			if err := symtab.Define(ln.Label, address); err != nil {
				errs = append(errs, errAt(ln.Num, "%s", err.Error()))
			}
		}
		if ln.Mnemonic != "" {
			address += 4
		}
	}

	// Second pass: encode each instruction line.
	var words []uint32
	address = 0
	for _, ln := range lines {
		if ln.Mnemonic == "" {
			continue
		}
		word, encErr := encodeLine(ln, address, symtab)
		if encErr != nil {
			errs = append(errs, encErr)
		} else {
			words = append(words, word)
		}
		address += 4
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Result{Words: words, Symbols: symtab}, nil
}

func encodeLine(ln sourceLine, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	info, ok := isa.Lookup(ln.Mnemonic)
	if !ok {
		return 0, errAt(ln.Num, "unknown opcode %q", ln.Mnemonic)
	}
	opcode := info.Opcode

	switch info.Form {
	case isa.FormReg3:
		if ln.Mnemonic == "MOV" {
			return encodeMov(ln, symtab)
		}
		return encodeReg3(ln, opcode)
	case isa.FormImm:
		return encodeImm(ln, opcode, address, symtab)
	case isa.FormMovi:
		return encodeMovi(ln, opcode, address, symtab)
	case isa.FormMemOffset:
		return encodeMemOffset(ln, opcode, address, symtab)
	case isa.FormPushPop:
		return encodePushPop(ln, opcode)
	case isa.FormBranch:
		return encodeBranch(ln, opcode, address, symtab)
	case isa.FormJump:
		return encodeJump(ln, opcode, address, symtab)
	case isa.FormNoOperand:
		return encodeNoOperand(ln, opcode)
	case isa.FormIOPort:
		return encodeIOPort(ln, opcode, address, symtab)
	default:
		return 0, errAt(ln.Num, "internal error: unhandled form for %q", ln.Mnemonic)
	}
}

func pack(opcode byte, dest, src1, src2 byte) uint32 {
	return uint32(opcode)<<24 | uint32(dest)<<16 | uint32(src1)<<8 | uint32(src2)
}

func register(ln sourceLine, idx int) (byte, *AssembleError) {
	if idx >= len(ln.Operands) {
		return 0, errAt(ln.Num, "%s: missing register operand", ln.Mnemonic)
	}
	tok := ln.Operands[idx]
	if tok.Kind != asmtoken.KindSymbol {
		return 0, errAt(ln.Num, "%s: expected register, found %s", ln.Mnemonic, tok)
	}
	r, ok := asmtoken.ParseRegister(tok.Text)
	if !ok {
		return 0, errAt(ln.Num, "%s: malformed register %q", ln.Mnemonic, tok.Text)
	}
	return byte(r), nil
}

// literalOrBranchTarget resolves a single operand token as either an
// immediate literal or a label reference. isTarget selects the
// branch/jump encoding path, which divides a label's displacement by
// 4 since branch/jump targets are word-aligned; plain immediates are
// used as-is.
func literalOrBranchTarget(ln sourceLine, idx int, address uint32, symtab *SymbolTable, isTarget bool) (int32, *AssembleError) {
	if idx >= len(ln.Operands) {
		return 0, errAt(ln.Num, "%s: missing operand", ln.Mnemonic)
	}

	tok := ln.Operands[idx]
	negate := false
	if tok.Kind == asmtoken.KindMinus {
		negate = true
		idx++
		if idx >= len(ln.Operands) {
			return 0, errAt(ln.Num, "%s: missing operand after '-'", ln.Mnemonic)
		}
		tok = ln.Operands[idx]
	}

	switch tok.Kind {
	case asmtoken.KindNumber:
		v, err := asmtoken.ParseImmediate(tok.Text)
		if err != nil {
			return 0, errAt(ln.Num, "%s: %s", ln.Mnemonic, err.Error())
		}
		if negate {
			v = -v
		}
		if v < -128 || v > 255 {
			return 0, errAt(ln.Num, "%s: immediate %d out of 8-bit range", ln.Mnemonic, v)
		}
		return int32(int8(v)), nil

	case asmtoken.KindSymbol:
		if !isTarget {
			return 0, errAt(ln.Num, "%s: expected immediate, found label %q", ln.Mnemonic, tok.Text)
		}
		target, ok := symtab.Resolve(tok.Text)
		if !ok {
			return 0, errAt(ln.Num, "%s: undefined label %q", ln.Mnemonic, tok.Text)
		}
		diff := int64(target) - int64(address)
		imm := diff >> 2
		if imm < -128 || imm > 127 {
			return 0, errAt(ln.Num, "%s: branch target %q out of range", ln.Mnemonic, tok.Text)
		}
		return int32(imm), nil

	default:
		return 0, errAt(ln.Num, "%s: expected immediate or label, found %s", ln.Mnemonic, tok)
	}
}

func encodeReg3(ln sourceLine, opcode byte) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	src1, err := register(ln, 1)
	if err != nil {
		return 0, err
	}
	src2, err := register(ln, 2)
	if err != nil {
		return 0, err
	}
	return pack(opcode, dest, src1, src2), nil
}

// encodeMov rewrites MOV Rd, Rs to ADD Rd, Rs, R0, so the decode table
// and pipeline never need a dedicated MOV opcode.
func encodeMov(ln sourceLine, _ *SymbolTable) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	src, err := register(ln, 1)
	if err != nil {
		return 0, err
	}
	return pack(isa.OpADD, dest, src, 0), nil
}

func encodeImm(ln sourceLine, opcode byte, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	src1, err := register(ln, 1)
	if err != nil {
		return 0, err
	}
	imm, err := literalOrBranchTarget(ln, 2, address, symtab, false)
	if err != nil {
		return 0, err
	}
	return pack(opcode, dest, src1, byte(imm)), nil
}

func encodeMovi(ln sourceLine, opcode byte, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	imm, err := literalOrBranchTarget(ln, 1, address, symtab, false)
	if err != nil {
		return 0, err
	}
	return pack(opcode, dest, 0, byte(imm)), nil
}

// encodeMemOffset parses `Rd, [Rs1 + imm]`, with `+ imm` optional
// (defaults to 0).
func encodeMemOffset(ln sourceLine, opcode byte, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	if len(ln.Operands) < 3 || ln.Operands[1].Kind != asmtoken.KindLBracket {
		return 0, errAt(ln.Num, "%s: expected '[', found operand", ln.Mnemonic)
	}
	src1, perr := parseRegisterToken(ln, ln.Operands[2])
	if perr != nil {
		return 0, perr
	}

	idx := 3
	var imm int32
	if idx < len(ln.Operands) && ln.Operands[idx].Kind == asmtoken.KindPlus {
		idx++
		immLn := sourceLine{Num: ln.Num, Mnemonic: ln.Mnemonic, Operands: ln.Operands[idx:]}
		imm, err = literalOrBranchTarget(immLn, 0, address, symtab, false)
		if err != nil {
			return 0, err
		}
		idx++
	}
	if idx >= len(ln.Operands) || ln.Operands[idx].Kind != asmtoken.KindRBracket {
		return 0, errAt(ln.Num, "%s: expected ']'", ln.Mnemonic)
	}

	return pack(opcode, dest, src1, byte(imm)), nil
}

func parseRegisterToken(ln sourceLine, tok asmtoken.Token) (byte, *AssembleError) {
	if tok.Kind != asmtoken.KindSymbol {
		return 0, errAt(ln.Num, "%s: expected register, found %s", ln.Mnemonic, tok)
	}
	r, ok := asmtoken.ParseRegister(tok.Text)
	if !ok {
		return 0, errAt(ln.Num, "%s: malformed register %q", ln.Mnemonic, tok.Text)
	}
	return byte(r), nil
}

func encodePushPop(ln sourceLine, opcode byte) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	return pack(opcode, dest, 0, 0), nil
}

// encodeBranch parses `OP Rs1, Rs2, target`. The two compared
// registers occupy the dest and src1 fields; the target occupies the
// 8-bit immediate field.
func encodeBranch(ln sourceLine, opcode byte, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	r1, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	r2, err := register(ln, 1)
	if err != nil {
		return 0, err
	}
	imm, err := literalOrBranchTarget(ln, 2, address, symtab, true)
	if err != nil {
		return 0, err
	}
	return pack(opcode, r1, r2, byte(imm)), nil
}

func encodeJump(ln sourceLine, opcode byte, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	imm, err := literalOrBranchTarget(ln, 0, address, symtab, true)
	if err != nil {
		return 0, err
	}
	return pack(opcode, 0, 0, byte(imm)), nil
}

func encodeNoOperand(ln sourceLine, opcode byte) (uint32, *AssembleError) {
	if len(ln.Operands) != 0 {
		return 0, errAt(ln.Num, "%s: takes no operands", ln.Mnemonic)
	}
	return pack(opcode, 0, 0, 0), nil
}

func encodeIOPort(ln sourceLine, opcode byte, address uint32, symtab *SymbolTable) (uint32, *AssembleError) {
	dest, err := register(ln, 0)
	if err != nil {
		return 0, err
	}
	imm, err := literalOrBranchTarget(ln, 1, address, symtab, false)
	if err != nil {
		return 0, err
	}
	return pack(opcode, dest, 0, byte(imm)), nil
}
