package asm

import (
	"strings"

	"github.com/drchhhhhh/isasim/internal/asmtoken"
)

// sourceLine is one logical assembly line after label extraction. A
// line of the form "LABEL: INSTR ..." both binds LABEL and emits an
// instruction.
type sourceLine struct {
	Num      int
	Label    string
	Mnemonic string
	Operands []asmtoken.Token
}

// scanLines tokenizes source into logical lines, dropping comments
// (swallowed by the lexer before it emits the newline token) and blank
// lines (bare newline tokens, skipped here).
func scanLines(source string) ([]sourceLine, error) {
	lx := asmtoken.NewFromString(source)
	var lines []sourceLine

	for {
		tok := lx.Next()
		if tok.Kind == asmtoken.KindEOF {
			break
		}
		if tok.Kind == asmtoken.KindNewline {
			continue
		}

		ln := sourceLine{Num: tok.Line}

		if tok.Kind == asmtoken.KindLabel {
			ln.Label = tok.Text
			tok = lx.Next()
		}

		if tok.Kind == asmtoken.KindNewline || tok.Kind == asmtoken.KindEOF {
			lines = append(lines, ln)
			if tok.Kind == asmtoken.KindEOF {
				break
			}
			continue
		}

		if tok.Kind != asmtoken.KindSymbol {
			return lines, errAt(ln.Num, "expected instruction, found %s", tok)
		}
		ln.Mnemonic = strings.ToUpper(tok.Text)

		for {
			tok = lx.Next()
			if tok.Kind == asmtoken.KindNewline || tok.Kind == asmtoken.KindEOF {
				break
			}
			if tok.Kind == asmtoken.KindComma {
				continue
			}
			ln.Operands = append(ln.Operands, tok)
		}

		lines = append(lines, ln)
		if tok.Kind == asmtoken.KindEOF {
			break
		}
	}

	return lines, nil
}
