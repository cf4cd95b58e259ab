package stream

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrReadTimeout is returned by byteSource.Read when the ring buffer stays
// empty past ReadTimeout. It is a fatal stream error, not a silent stall.
var ErrReadTimeout = errors.New("stream: read timed out waiting for data")

// ErrNotSeekable is returned for any seek other than absolute zero or
// relative zero; the source is a live, non-rewindable stream.
var ErrNotSeekable = errors.New("stream: source supports only seek-to-start")

// byteSource adapts the ring buffer to the decoder's pull interface. The
// header snapshot captured at session start is served first, and again after
// a seek-to-start, so the decoder's start-of-stream probe sees stable bytes
// the live buffer can no longer provide.
type byteSource struct {
	ctrl      *Controller
	sess      *session
	header    []byte
	headerPos int
	pos       int64
}

// Read blocks, with bounded retries and short sleeps, until at least one byte
// is available, the session stops, or ReadTimeout elapses. It never returns
// (0, nil): a successful zero-byte read is indistinguishable from
// end-of-stream to the decoder.
func (b *byteSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if b.headerPos < len(b.header) {
		n := copy(p, b.header[b.headerPos:])
		b.headerPos += n
		b.pos += int64(n)
		return n, nil
	}

	deadline := time.Now().Add(ReadTimeout)
	for {
		if b.sess.stopRequested() {
			return 0, io.EOF
		}
		n := b.ctrl.readAudio(b.sess, p)
		if n > 0 {
			b.pos += int64(n)
			return n, nil
		}
		if time.Now().After(deadline) {
			return 0, ErrReadTimeout
		}
		time.Sleep(readRetryInterval)
	}
}

// Seek supports exactly two requests: SeekStart with offset 0 rewinds into
// header replay, and SeekCurrent with offset 0 reports the position.
func (b *byteSource) Seek(offset int64, whence int) (int64, error) {
	switch {
	case whence == io.SeekStart && offset == 0:
		b.headerPos = 0
		b.pos = 0
		return 0, nil
	case whence == io.SeekCurrent && offset == 0:
		return b.pos, nil
	default:
		return 0, fmt.Errorf("%w (offset %d, whence %d)", ErrNotSeekable, offset, whence)
	}
}

// Close resets the replay and position state. It is idempotent and does not
// release the ring buffer, which the controller owns.
func (b *byteSource) Close() error {
	b.headerPos = len(b.header)
	b.pos = 0
	return nil
}
