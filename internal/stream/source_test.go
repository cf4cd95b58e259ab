package stream

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tabradio/tabradio/internal/ring"
)

// newTestSession wires a controller and live session directly, without tasks.
func newTestSession(t *testing.T, capacity int) (*Controller, *session) {
	t.Helper()
	rb, err := ring.New(capacity)
	if err != nil {
		t.Fatal(err)
	}
	s := &session{
		gen:        1,
		stop:       make(chan struct{}),
		cancel:     func() {},
		ingestDone: make(chan struct{}),
		drainDone:  make(chan struct{}),
	}
	c := &Controller{
		ring:       rb,
		sess:       s,
		generation: 1,
		state:      StateBuffering,
	}
	return c, s
}

func TestSourceServesHeaderThenRing(t *testing.T) {
	c, s := newTestSession(t, 64)
	c.ring.Write([]byte("live bytes"))

	src := &byteSource{ctrl: c, sess: s, header: []byte("header")}

	buf := make([]byte, 6)
	n, err := src.Read(buf)
	if err != nil || n != 6 {
		t.Fatalf("Read = (%d, %v), want (6, nil)", n, err)
	}
	if !bytes.Equal(buf, []byte("header")) {
		t.Errorf("first read = %q, want header bytes", buf)
	}

	buf = make([]byte, 10)
	n, err = src.Read(buf)
	if err != nil || n != 10 {
		t.Fatalf("Read = (%d, %v), want (10, nil)", n, err)
	}
	if !bytes.Equal(buf, []byte("live bytes")) {
		t.Errorf("second read = %q, want ring bytes", buf)
	}
}

func TestSourceSeekToStartReplaysHeader(t *testing.T) {
	c, s := newTestSession(t, 64)
	src := &byteSource{ctrl: c, sess: s, header: []byte("abcd")}

	buf := make([]byte, 4)
	if _, err := src.Read(buf); err != nil {
		t.Fatal(err)
	}

	pos, err := src.Seek(0, io.SeekStart)
	if err != nil || pos != 0 {
		t.Fatalf("Seek(0, SeekStart) = (%d, %v), want (0, nil)", pos, err)
	}

	n, err := src.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read after rewind = (%d, %v), want (4, nil)", n, err)
	}
	if !bytes.Equal(buf, []byte("abcd")) {
		t.Errorf("replayed header = %q, want abcd", buf)
	}
}

func TestSourceSeekCurrentReportsPosition(t *testing.T) {
	c, s := newTestSession(t, 64)
	src := &byteSource{ctrl: c, sess: s, header: []byte("abcdef")}

	buf := make([]byte, 6)
	if _, err := src.Read(buf); err != nil {
		t.Fatal(err)
	}

	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil || pos != 6 {
		t.Errorf("Seek(0, SeekCurrent) = (%d, %v), want (6, nil)", pos, err)
	}
}

func TestSourceRejectsOtherSeeks(t *testing.T) {
	c, s := newTestSession(t, 64)
	src := &byteSource{ctrl: c, sess: s}

	tests := []struct {
		offset int64
		whence int
	}{
		{4, io.SeekStart},
		{1, io.SeekCurrent},
		{0, io.SeekEnd},
		{-2, io.SeekEnd},
	}

	for _, tt := range tests {
		if _, err := src.Seek(tt.offset, tt.whence); !errors.Is(err, ErrNotSeekable) {
			t.Errorf("Seek(%d, %d) err = %v, want ErrNotSeekable", tt.offset, tt.whence, err)
		}
	}
}

// A producer that stalls longer than the retry interval must delay the read,
// never turn it into a zero-byte success or a premature EOF.
func TestSourceReadWaitsThroughStall(t *testing.T) {
	c, s := newTestSession(t, 64)
	src := &byteSource{ctrl: c, sess: s}

	go func() {
		time.Sleep(5 * readRetryInterval)
		c.writeAudio(s, []byte("late"))
	}()

	buf := make([]byte, 16)
	n, err := src.Read(buf)
	if err != nil {
		t.Fatalf("Read = %v, want nil", err)
	}
	if n == 0 {
		t.Fatal("Read returned a zero-byte success")
	}
	if !bytes.Equal(buf[:n], []byte("late")) {
		t.Errorf("Read = %q, want %q", buf[:n], "late")
	}
}

func TestSourceReadStopSignalsEOF(t *testing.T) {
	c, s := newTestSession(t, 64)
	src := &byteSource{ctrl: c, sess: s}

	go func() {
		time.Sleep(3 * readRetryInterval)
		s.requestStop()
	}()

	buf := make([]byte, 16)
	n, err := src.Read(buf)
	if !errors.Is(err, io.EOF) || n != 0 {
		t.Errorf("Read after stop = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestSourceCloseIsIdempotent(t *testing.T) {
	c, s := newTestSession(t, 64)
	src := &byteSource{ctrl: c, sess: s, header: []byte("hdr")}

	if err := src.Close(); err != nil {
		t.Fatalf("Close = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}

	// Closed source does not replay the header; a fresh seek re-arms it.
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 3)
	n, err := src.Read(buf)
	if err != nil || n != 3 {
		t.Fatalf("Read after reopen = (%d, %v), want (3, nil)", n, err)
	}
}
