package alu

import (
	"testing"

	"github.com/drchhhhhh/isasim/internal/regfile"
)

func TestExecuteArithmetic(t *testing.T) {
	cases := []struct {
		name           string
		op             Op
		a, b           uint32
		want           uint32
		wantDivByZero  bool
	}{
		{"add", Add, 3, 4, 7, false},
		{"sub", Sub, 10, 4, 6, false},
		{"and", And, 0xF0, 0x1F, 0x10, false},
		{"or", Or, 0xF0, 0x0F, 0xFF, false},
		{"xor", Xor, 0xFF, 0x0F, 0xF0, false},
		{"sll", Sll, 1, 4, 16, false},
		{"srl", Srl, 16, 4, 1, false},
		{"slt true", Slt, 2, 3, 1, false},
		{"slt false", Slt, 3, 2, 0, false},
		{"mul", Mul, 6, 7, 42, false},
		{"div", Div, 42, 6, 7, false},
		{"div by zero", Div, 42, 0, 0, true},
		{"mov", Mov, 0, 99, 99, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &regfile.File{}
			res := Execute(f, c.op, c.a, c.b)
			if res.Value != c.want {
				t.Errorf("%s: got %d, want %d", c.name, res.Value, c.want)
			}
			if res.DivByZero != c.wantDivByZero {
				t.Errorf("%s: DivByZero = %v, want %v", c.name, res.DivByZero, c.wantDivByZero)
			}
		})
	}
}

func TestExecuteUpdatesZeroAndNegativeFlags(t *testing.T) {
	f := &regfile.File{}
	Execute(f, Sub, 5, 5)
	if !f.Zero {
		t.Errorf("zero flag not set after 5-5")
	}

	Execute(f, Sub, 1, 2)
	if !f.Negative {
		t.Errorf("negative flag not set after 1-2 wraps to a negative result")
	}
}

func TestExecuteCarryOnlyFromAddSub(t *testing.T) {
	f := &regfile.File{}
	Execute(f, Add, 0xFFFFFFFF, 2)
	if !f.Carry {
		t.Errorf("carry not set on ADD overflow")
	}

	f2 := &regfile.File{}
	Execute(f2, And, 0xFFFFFFFF, 0)
	if f2.Carry {
		t.Errorf("carry should not be touched by a non-ADD/SUB op")
	}
}

func TestOpFromOpcode(t *testing.T) {
	if OpFromOpcode(0x19, true) != Mov {
		t.Errorf("OpFromOpcode(MOVI, isMovi=true) should be Mov")
	}
	if OpFromOpcode(0x00, false) != Add {
		t.Errorf("OpFromOpcode(ADD) should be Add")
	}
	if OpFromOpcode(0x11, false) != Sub {
		t.Errorf("OpFromOpcode(SUBI) should map to Sub via low 4 bits")
	}
}
