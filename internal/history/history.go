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

// Package history records one entry per cycle -- PC, the full register
// file, flags, and a dictionary per pipeline latch -- plus per-stage
// register read/write events, so a run can be replayed and inspected
// after the fact.
package history

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/drchhhhhh/isasim/internal/regfile"
)

// LatchSnapshot is a loosely-typed view of one pipeline latch at the
// end of a cycle, keyed by field name. Using a dictionary here (rather
// than importing the pipeline package's latch types) keeps this
// package import-free of pipeline and lets new latch fields show up in
// a trace without a schema change.
type LatchSnapshot map[string]any

// CycleRecord is one row of the trace for a single cycle: PC, registers
// and flags as captured by BeginCycle before the cycle's stages run,
// plus each latch as attached by RecordLatch at the end of the cycle.
type CycleRecord struct {
	Cycle     uint64                   `json:"cycle"`
	PC        uint32                   `json:"pc"`
	Registers [regfile.NumRegisters]uint32 `json:"registers"`
	Flags     regfile.Flags            `json:"flags"`
	Latches   map[string]LatchSnapshot `json:"latches"`
}

// RegisterEvent is one register read or write observed during a cycle,
// tagged with the pipeline stage that produced it.
type RegisterEvent struct {
	Cycle   uint64 `json:"cycle"`
	Stage   string `json:"stage"`
	Channel string `json:"channel"` // a register number as text, or a named channel like "pc"/"mem"
	IsWrite bool   `json:"is_write"`
	Value   uint32 `json:"value"`
}

type eventKey struct {
	cycle   uint64
	stage   string
	channel string
}

// Recorder accumulates CycleRecords and RegisterEvents as a run
// proceeds. It is not safe for concurrent use.
type Recorder struct {
	cycles []CycleRecord

	events     []RegisterEvent
	eventIndex map[eventKey]int
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{
		eventIndex: make(map[eventKey]int),
	}
}

// BeginCycle opens a new CycleRecord. Cycle numbers must be supplied in
// strictly increasing order; the recorder does not renumber them.
func (r *Recorder) BeginCycle(cycle uint64, pc uint32, registers [regfile.NumRegisters]uint32, flags regfile.Flags) {
	r.cycles = append(r.cycles, CycleRecord{
		Cycle:     cycle,
		PC:        pc,
		Registers: registers,
		Flags:     flags,
		Latches:   make(map[string]LatchSnapshot),
	})
}

// RecordLatch attaches a named latch's snapshot to the cycle most
// recently opened with BeginCycle.
func (r *Recorder) RecordLatch(name string, snapshot LatchSnapshot) {
	if len(r.cycles) == 0 {
		return
	}
	r.cycles[len(r.cycles)-1].Latches[name] = snapshot
}

// RecordRead logs a register (or named channel) read by stage during
// cycle. A duplicate read for the same (cycle, stage, channel) key is
// dropped: the first value observed wins. A read never displaces a
// write already recorded for the same key.
func (r *Recorder) RecordRead(cycle uint64, stage, channel string, value uint32) {
	key := eventKey{cycle, stage, channel}
	if _, ok := r.eventIndex[key]; ok {
		return
	}
	r.eventIndex[key] = len(r.events)
	r.events = append(r.events, RegisterEvent{Cycle: cycle, Stage: stage, Channel: channel, Value: value})
}

// RecordWrite logs a register (or named channel) write by stage during
// cycle. A write always overwrites whatever was previously recorded for
// the same (cycle, stage, channel) key, including a prior read.
func (r *Recorder) RecordWrite(cycle uint64, stage, channel string, value uint32) {
	key := eventKey{cycle, stage, channel}
	entry := RegisterEvent{Cycle: cycle, Stage: stage, Channel: channel, IsWrite: true, Value: value}
	if idx, ok := r.eventIndex[key]; ok {
		r.events[idx] = entry
		return
	}
	r.eventIndex[key] = len(r.events)
	r.events = append(r.events, entry)
}

// GetCycle returns the record for cycle n, if one was captured.
func (r *Recorder) GetCycle(n uint64) (CycleRecord, bool) {
	for _, c := range r.cycles {
		if c.Cycle == n {
			return c, true
		}
	}
	return CycleRecord{}, false
}

// Len reports how many cycles have been recorded.
func (r *Recorder) Len() int { return len(r.cycles) }

// GetRegisterHistory returns every read/write event recorded against
// general register reg, in the order they were observed.
func (r *Recorder) GetRegisterHistory(reg int) []RegisterEvent {
	channel := fmt.Sprintf("%d", reg)
	var out []RegisterEvent
	for _, e := range r.events {
		if e.Channel == channel {
			out = append(out, e)
		}
	}
	return out
}

// trace is the on-disk shape written by Save.
type trace struct {
	Cycles []CycleRecord   `json:"cycles"`
	Events []RegisterEvent `json:"events"`
}

// Save writes the full trace to path as JSON.
func (r *Recorder) Save(path string) error {
	t := trace{Cycles: r.cycles, Events: r.events}
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
