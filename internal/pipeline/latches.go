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

import "github.com/drchhhhhh/isasim/internal/control"

// IFID is the fetch/decode latch.
type IFID struct {
	Valid bool
	PC    uint32
	Word  uint32
}

// Clear empties the latch, modelling a pipeline bubble.
func (l *IFID) Clear() { *l = IFID{} }

// IDEX is the decode/execute latch. Src1Val/Src2Val already carry any
// forwarding applied in ID: EX never forwards.
type IDEX struct {
	Valid   bool
	PC      uint32
	Decoded control.Decoded
	Src1Val uint32
	Src2Val uint32
}

func (l *IDEX) Clear() { *l = IDEX{} }

// EXMEM is the execute/memory latch.
type EXMEM struct {
	Valid      bool
	PC         uint32
	Decoded    control.Decoded
	ALUResult  uint32
	StoreValue uint32
	DivByZero  bool
}

func (l *EXMEM) Clear() { *l = EXMEM{} }

// MEMWB is the memory/writeback latch.
type MEMWB struct {
	Valid     bool
	PC        uint32
	Decoded   control.Decoded
	ALUResult uint32
	MemData   uint32
}

func (l *MEMWB) Clear() { *l = MEMWB{} }
