// Package ring implements the fixed-capacity byte buffer between the network
// ingest task and the audio drain task.
package ring

import (
	"errors"
	"time"
)

// LockWait bounds how long any ring operation waits for the internal lock.
// An operation that cannot acquire the lock in time is a no-op returning 0,
// so neither task can stall the other indefinitely.
const LockWait = 100 * time.Millisecond

var ErrInvalidCapacity = errors.New("ring: capacity must be positive")

// Buffer is a single-writer/single-reader byte queue with wraparound
// addressing. Writes that exceed free space are truncated, never blocked;
// truncated bytes are counted so backpressure stays diagnosable.
type Buffer struct {
	lock     chan struct{}
	buf      []byte
	readPos  int
	writePos int
	count    int
	dropped  uint64
}

func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	b := &Buffer{
		lock: make(chan struct{}, 1),
		buf:  make([]byte, capacity),
	}
	return b, nil
}

func (b *Buffer) acquire() bool {
	select {
	case b.lock <- struct{}{}:
		return true
	default:
	}
	timer := time.NewTimer(LockWait)
	defer timer.Stop()
	select {
	case b.lock <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (b *Buffer) release() {
	<-b.lock
}

// Write copies up to len(p) bytes into the buffer and returns how many were
// accepted. Bytes that do not fit are dropped and counted.
func (b *Buffer) Write(p []byte) int {
	if !b.acquire() {
		return 0
	}
	defer b.release()

	free := len(b.buf) - b.count
	toWrite := len(p)
	if toWrite > free {
		b.dropped += uint64(toWrite - free)
		toWrite = free
	}

	right := len(b.buf) - b.writePos
	if right > toWrite {
		right = toWrite
	}
	copy(b.buf[b.writePos:b.writePos+right], p[:right])
	if right < toWrite {
		copy(b.buf[:toWrite-right], p[right:toWrite])
	}
	b.writePos = (b.writePos + toWrite) % len(b.buf)
	b.count += toWrite

	return toWrite
}

// Read copies up to len(p) buffered bytes into p and returns how many were
// copied. An empty buffer yields 0.
func (b *Buffer) Read(p []byte) int {
	if !b.acquire() {
		return 0
	}
	defer b.release()

	toRead := len(p)
	if toRead > b.count {
		toRead = b.count
	}

	right := len(b.buf) - b.readPos
	if right > toRead {
		right = toRead
	}
	copy(p[:right], b.buf[b.readPos:b.readPos+right])
	if right < toRead {
		copy(p[right:toRead], b.buf[:toRead-right])
	}
	b.readPos = (b.readPos + toRead) % len(b.buf)
	b.count -= toRead

	return toRead
}

// Available returns the number of buffered bytes, or 0 if the lock cannot be
// acquired within LockWait.
func (b *Buffer) Available() int {
	if !b.acquire() {
		return 0
	}
	defer b.release()
	return b.count
}

func (b *Buffer) Capacity() int {
	return len(b.buf)
}

// PercentFull reports buffer fill as 0..100.
func (b *Buffer) PercentFull() int {
	return (b.Available() * 100) / len(b.buf)
}

// Dropped returns the total number of bytes truncated by Write since the
// buffer was created or last Reset.
func (b *Buffer) Dropped() uint64 {
	if !b.acquire() {
		return 0
	}
	defer b.release()
	return b.dropped
}

// Reset zeroes both cursors, the byte count and the drop counter. Unlike the
// other operations it blocks until the lock is held: a session restart must
// not silently skip the reset.
func (b *Buffer) Reset() {
	b.lock <- struct{}{}
	defer b.release()
	b.readPos = 0
	b.writePos = 0
	b.count = 0
	b.dropped = 0
}
