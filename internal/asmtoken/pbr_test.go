package asmtoken

import "testing"

func TestPushbackByteReaderUnreadThenRead(t *testing.T) {
	pbr := newStringPushbackByteReader("ab")
	b1, err := pbr.ReadByte()
	if err != nil || b1 != 'a' {
		t.Fatalf("ReadByte = %q, %v, want 'a', nil", b1, err)
	}
	pbr.UnreadByte(b1)
	b2, err := pbr.ReadByte()
	if err != nil || b2 != 'a' {
		t.Fatalf("ReadByte after UnreadByte = %q, %v, want 'a', nil", b2, err)
	}
	b3, err := pbr.ReadByte()
	if err != nil || b3 != 'b' {
		t.Fatalf("ReadByte = %q, %v, want 'b', nil", b3, err)
	}
}

func TestPushbackByteReaderEOF(t *testing.T) {
	pbr := newStringPushbackByteReader("")
	if _, err := pbr.ReadByte(); err == nil {
		t.Errorf("ReadByte on empty source should return an error")
	}
}
