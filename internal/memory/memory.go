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

// Package memory implements the segmented, word-addressable backing
// store plus memory-mapped I/O.
package memory

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Size is the size in bytes of the linear backing array.
const Size = 1024 * 1024

// Segment base addresses.
const (
	TextBase  = 0x00000000
	DataBase  = 0x10000000
	HeapBase  = 0x20000000
	StackBase = 0x30000000
	IOBase    = 0xFFFF0000
)

// Segment sizes determine the precomputed offsets that fold the four
// logical segments into one backing array. These bounds are generous
// enough for an educational program while keeping Size at 1 MiB.
const (
	textSize  = 256 * 1024
	dataSize  = 256 * 1024
	heapSize  = 256 * 1024
	stackSize = Size - textSize - dataSize - heapSize
)

// StackTop is the initial stack pointer value: the stack segment
// grows downward from the top of its range, so PUSH pre-decrements
// and POP post-increments.
const StackTop = StackBase + stackSize

var segments = []struct {
	base, limit, offset uint32
}{
	{TextBase, TextBase + textSize, 0},
	{DataBase, DataBase + dataSize, textSize},
	{HeapBase, HeapBase + heapSize, textSize + dataSize},
	{StackBase, StackBase + stackSize, textSize + dataSize + heapSize},
}

// MMIO register offsets from IOBase.
const (
	RegConsoleOut     = 0x00
	RegConsoleIn      = 0x04
	RegDisplayCtrl    = 0x08
	RegKeyboardCtrl   = 0x0C
	RegTimerCtrl      = 0x10
	RegTimerData      = 0x14
	RegInterruptCtrl  = 0x18
	RegInterruptStatus = 0x1C
)

// Interrupt status bits.
const (
	IntConsole  = 0x1
	IntKeyboard = 0x2
	IntTimer    = 0x4
)

// AlignmentError is returned when a word access is not 4-byte aligned.
type AlignmentError struct{ Addr uint32 }

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("unaligned memory access at address 0x%08X", e.Addr)
}

// AddressError is returned when a non-I/O access falls outside every
// known segment.
type AddressError struct{ Addr uint32 }

func (e *AddressError) Error() string {
	return fmt.Sprintf("memory access out of bounds: 0x%08X", e.Addr)
}

// Memory is the segmented backing store plus MMIO device state.
type Memory struct {
	data []byte

	consoleIn  []byte
	keyboard   []uint32
	consoleOut []byte

	timerEnabled bool
	timerValue   uint32
	intMask      uint32
	intStatus    uint32

	callbacks map[string]func(uint32)

	log *logrus.Logger
}

// New allocates a zeroed 1 MiB memory with no registered I/O callbacks.
func New(log *logrus.Logger) *Memory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Memory{
		data:      make([]byte, Size),
		callbacks: make(map[string]func(uint32)),
		log:       log,
	}
}

// translate maps a logical address into a backing-array offset. It
// returns isIO=true (and offset 0) for MMIO addresses (callers dispatch
// those separately) and an AddressError for anything else out of range.
func translate(addr uint32) (offset int, isIO bool, err error) {
	if addr >= IOBase {
		return 0, true, nil
	}
	for _, s := range segments {
		if addr >= s.base && addr < s.limit {
			return int(s.offset + (addr - s.base)), false, nil
		}
	}
	return 0, false, &AddressError{Addr: addr}
}

// ReadByte reads a single byte. Byte accesses may be unaligned.
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	off, isIO, err := translate(addr)
	if err != nil {
		return 0, err
	}
	if isIO {
		return byte(m.ioRead(addr)), nil
	}
	return m.data[off], nil
}

// WriteByte writes a single byte.
func (m *Memory) WriteByte(addr uint32, v byte) error {
	off, isIO, err := translate(addr)
	if err != nil {
		return err
	}
	if isIO {
		m.ioWrite(addr, uint32(v))
		return nil
	}
	m.data[off] = v
	return nil
}

// ReadWord reads a little-endian 32-bit word. addr must be 4-byte
// aligned.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, &AlignmentError{Addr: addr}
	}
	off, isIO, err := translate(addr)
	if err != nil {
		return 0, err
	}
	if isIO {
		return m.ioRead(addr), nil
	}
	b := m.data[off : off+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// WriteWord writes a little-endian 32-bit word. addr must be 4-byte
// aligned.
func (m *Memory) WriteWord(addr uint32, v uint32) error {
	if addr%4 != 0 {
		return &AlignmentError{Addr: addr}
	}
	off, isIO, err := translate(addr)
	if err != nil {
		return err
	}
	if isIO {
		m.ioWrite(addr, v)
		return nil
	}
	b := m.data[off : off+4]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	return nil
}

// LoadProgram writes words sequentially starting at base, word-aligned.
func (m *Memory) LoadProgram(words []uint32, base uint32) error {
	addr := base
	for _, w := range words {
		if err := m.WriteWord(addr, w); err != nil {
			return err
		}
		addr += 4
	}
	return nil
}

// DumpEntry is one row of a memory.dump() result.
type DumpEntry struct {
	Addr  uint32
	Word  uint32
	ASCII string
}

// Dump reads length bytes starting at addr, one word at a time, and
// renders each as (addr, word, ascii).
func (m *Memory) Dump(addr uint32, length uint32) ([]DumpEntry, error) {
	var out []DumpEntry
	for a := addr; a < addr+length; a += 4 {
		w, err := m.ReadWord(a)
		if err != nil {
			return out, err
		}
		ascii := make([]byte, 4)
		for i := 0; i < 4; i++ {
			b := byte(w >> (8 * i))
			if b >= 0x20 && b < 0x7F {
				ascii[i] = b
			} else {
				ascii[i] = '.'
			}
		}
		out = append(out, DumpEntry{Addr: a, Word: w, ASCII: string(ascii)})
	}
	return out, nil
}
