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

import "fmt"

// SymbolTable binds labels to byte addresses across the assembler's
// two passes.
type SymbolTable struct {
	addresses map[string]uint32
	defined   map[string]bool
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		addresses: make(map[string]uint32),
		defined:   make(map[string]bool),
	}
}

// Define binds name to addr. Redefining an already-defined label is an
// error, mirroring sym.go's DefineSymbol.
func (st *SymbolTable) Define(name string, addr uint32) error {
	if st.defined[name] {
		return fmt.Errorf("label %s redefined", name)
	}
	st.addresses[name] = addr
	st.defined[name] = true
	return nil
}

// Resolve returns the address bound to name and whether it is defined.
func (st *SymbolTable) Resolve(name string) (uint32, bool) {
	if !st.defined[name] {
		return 0, false
	}
	return st.addresses[name], true
}
