package ring

import (
	"bytes"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		capacity int
		wantErr  bool
	}{
		{1, false},
		{64 * 1024, false},
		{0, true},
		{-1, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("capacity_%d", tt.capacity), func(t *testing.T) {
			b, err := New(tt.capacity)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New(%d) expected error, got nil", tt.capacity)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%d) unexpected error: %v", tt.capacity, err)
			}
			if b.Capacity() != tt.capacity {
				t.Errorf("Capacity() = %d, want %d", b.Capacity(), tt.capacity)
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	b, _ := New(16)

	data := []byte("hello world")
	n := b.Write(data)
	if n != len(data) {
		t.Fatalf("Write = %d, want %d", n, len(data))
	}
	if b.Available() != len(data) {
		t.Errorf("Available = %d, want %d", b.Available(), len(data))
	}

	out := make([]byte, 32)
	n = b.Read(out)
	if n != len(data) {
		t.Fatalf("Read = %d, want %d", n, len(data))
	}
	if !bytes.Equal(out[:n], data) {
		t.Errorf("Read = %q, want %q", out[:n], data)
	}
	if b.Available() != 0 {
		t.Errorf("Available after drain = %d, want 0", b.Available())
	}
}

func TestWraparoundPreservesOrder(t *testing.T) {
	b, _ := New(8)

	// Advance the cursors so subsequent writes wrap.
	b.Write([]byte("aaaaaa"))
	out := make([]byte, 6)
	b.Read(out)

	data := []byte("12345678")
	if n := b.Write(data); n != 8 {
		t.Fatalf("Write = %d, want 8", n)
	}

	got := make([]byte, 8)
	if n := b.Read(got); n != 8 {
		t.Fatalf("Read = %d, want 8", n)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("wrapped read = %q, want %q", got, data)
	}
}

func TestWriteTruncatesOnFullAndCountsDrops(t *testing.T) {
	b, _ := New(8)

	n := b.Write([]byte("0123456789ab")) // 12 bytes into 8
	if n != 8 {
		t.Fatalf("Write = %d, want 8", n)
	}
	if b.Available() != 8 {
		t.Errorf("Available = %d, want 8", b.Available())
	}
	if b.Dropped() != 4 {
		t.Errorf("Dropped = %d, want 4", b.Dropped())
	}

	// A completely full buffer accepts nothing and counts everything.
	n = b.Write([]byte("xyz"))
	if n != 0 {
		t.Errorf("Write to full buffer = %d, want 0", n)
	}
	if b.Dropped() != 7 {
		t.Errorf("Dropped = %d, want 7", b.Dropped())
	}

	// Unread bytes were never overwritten.
	got := make([]byte, 8)
	b.Read(got)
	if !bytes.Equal(got, []byte("01234567")) {
		t.Errorf("Read after truncation = %q, want %q", got, "01234567")
	}
}

func TestReadEmptyReturnsZero(t *testing.T) {
	b, _ := New(4)
	out := make([]byte, 4)
	if n := b.Read(out); n != 0 {
		t.Errorf("Read from empty = %d, want 0", n)
	}
}

func TestCapacityInvariant(t *testing.T) {
	b, _ := New(32)

	// Arbitrary interleaving of writes and reads must never exceed capacity.
	chunk := []byte("abcdefghij")
	out := make([]byte, 7)
	for i := 0; i < 100; i++ {
		b.Write(chunk)
		if b.Available() > b.Capacity() {
			t.Fatalf("Available %d exceeds capacity %d", b.Available(), b.Capacity())
		}
		b.Read(out)
		if b.Available() > b.Capacity() {
			t.Fatalf("Available %d exceeds capacity %d", b.Available(), b.Capacity())
		}
	}
}

func TestReset(t *testing.T) {
	b, _ := New(8)
	b.Write([]byte("0123456789")) // 2 dropped
	b.Reset()

	if b.Available() != 0 {
		t.Errorf("Available after Reset = %d, want 0", b.Available())
	}
	if b.Dropped() != 0 {
		t.Errorf("Dropped after Reset = %d, want 0", b.Dropped())
	}

	// Buffer is fully usable again.
	if n := b.Write([]byte("abcd")); n != 4 {
		t.Errorf("Write after Reset = %d, want 4", n)
	}
	out := make([]byte, 4)
	b.Read(out)
	if !bytes.Equal(out, []byte("abcd")) {
		t.Errorf("Read after Reset = %q, want %q", out, "abcd")
	}
}

func TestPercentFull(t *testing.T) {
	b, _ := New(100)
	if b.PercentFull() != 0 {
		t.Errorf("PercentFull empty = %d, want 0", b.PercentFull())
	}
	b.Write(make([]byte, 25))
	if b.PercentFull() != 25 {
		t.Errorf("PercentFull = %d, want 25", b.PercentFull())
	}
	b.Write(make([]byte, 75))
	if b.PercentFull() != 100 {
		t.Errorf("PercentFull = %d, want 100", b.PercentFull())
	}
}
