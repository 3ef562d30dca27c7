package regfile

import "testing"

func TestRegisterZeroIsHardwired(t *testing.T) {
	f := &File{}
	f.Write(0, 0xDEADBEEF)
	if got := f.Read(0); got != 0 {
		t.Errorf("R0 = %d after write, want 0", got)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	f := &File{}
	f.Write(5, 42)
	if got := f.Read(5); got != 42 {
		t.Errorf("R5 = %d, want 42", got)
	}
}

func TestPCAndSPAreIndependentOfGPRs(t *testing.T) {
	f := &File{}
	f.SetPC(0x1000)
	f.SetSP(0x2000)
	f.Write(1, 0x3000)

	if f.PC() != 0x1000 {
		t.Errorf("PC = 0x%X, want 0x1000", f.PC())
	}
	if f.SP() != 0x2000 {
		t.Errorf("SP = 0x%X, want 0x2000", f.SP())
	}
	if f.Read(1) != 0x3000 {
		t.Errorf("R1 = 0x%X, want 0x3000", f.Read(1))
	}
}

func TestSnapshotCopiesAllRegisters(t *testing.T) {
	f := &File{}
	f.Write(10, 123)
	snap := f.Snapshot()
	f.Write(10, 456)

	if snap[10] != 123 {
		t.Errorf("snapshot[10] = %d, want 123 (snapshot should not alias live state)", snap[10])
	}
	if f.Read(10) != 456 {
		t.Errorf("live R10 = %d, want 456", f.Read(10))
	}
}

func TestUpdateFlags(t *testing.T) {
	f := &File{}
	f.UpdateFlags(0)
	if !f.Zero {
		t.Errorf("Zero not set for result 0")
	}
	if f.Negative {
		t.Errorf("Negative should not be set for result 0")
	}

	f.UpdateFlags(0x80000000)
	if f.Zero {
		t.Errorf("Zero should not be set for a nonzero result")
	}
	if !f.Negative {
		t.Errorf("Negative not set for a high-bit-set result")
	}

	if f.Overflow {
		t.Errorf("Overflow must always read false (never written)")
	}
}
