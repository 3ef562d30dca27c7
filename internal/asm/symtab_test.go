package asm

import "testing"

func TestSymbolTableDefineAndResolve(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("loop", 0x10); err != nil {
		t.Fatalf("Define: %v", err)
	}
	addr, ok := st.Resolve("loop")
	if !ok || addr != 0x10 {
		t.Errorf("Resolve(loop) = 0x%X, %v, want 0x10, true", addr, ok)
	}
}

func TestSymbolTableRedefinitionFails(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("loop", 0x10); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := st.Define("loop", 0x20); err == nil {
		t.Errorf("redefining a label should fail")
	}
}

func TestSymbolTableUnresolved(t *testing.T) {
	st := NewSymbolTable()
	if _, ok := st.Resolve("nosuch"); ok {
		t.Errorf("Resolve(nosuch) should fail")
	}
}
