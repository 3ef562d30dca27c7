package simio

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/drchhhhhh/isasim/internal/history"
	"github.com/drchhhhhh/isasim/internal/memory"
)

// RenderMemoryDump renders a memory.Dump result as an aligned table of
// address/hex/decimal/ASCII columns.
func RenderMemoryDump(w io.Writer, entries []memory.DumpEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Address", "Hex", "Decimal", "ASCII"})
	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("0x%08X", e.Addr),
			fmt.Sprintf("0x%08X", e.Word),
			fmt.Sprintf("%d", e.Word),
			e.ASCII,
		})
	}
	table.Render()
}

// RenderCycleRecord renders one history.CycleRecord: PC and flags as a
// header line, the registers as a table across the top, and each
// latch's dictionary as one plain line per latch name.
func RenderCycleRecord(w io.Writer, rec history.CycleRecord) {
	fmt.Fprintf(w, "cycle %d  pc=0x%08X  zero=%v negative=%v carry=%v overflow=%v\n",
		rec.Cycle, rec.PC, rec.Flags.Zero, rec.Flags.Negative, rec.Flags.Carry, rec.Flags.Overflow)

	regTable := tablewriter.NewWriter(w)
	header := make([]string, 0, len(rec.Registers))
	row := make([]string, 0, len(rec.Registers))
	for i, v := range rec.Registers {
		header = append(header, fmt.Sprintf("R%d", i))
		row = append(row, fmt.Sprintf("%d", v))
	}
	regTable.SetHeader(header)
	regTable.Append(row)
	regTable.Render()

	for _, name := range []string{"IFID", "IDEX", "EXMEM", "MEMWB"} {
		snap, ok := rec.Latches[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s: %v\n", name, snap)
	}
}
