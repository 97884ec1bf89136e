// Package output provides concurrent streaming of worker output. A Log
// is an append-only byte buffer fed by a single writer; any number of
// readers can attach at any time and each receives the complete output
// from the first byte, followed by the live tail, followed by EOF once
// the log is closed.
package output

import (
	"io"
	"sync"
)

// initialBufferCapacity is the starting size for the log buffer.
// 4KB aligns with typical pipe buffer sizes.
const initialBufferCapacity = 4096

// Log is an append-only byte log for a single process stream. Writes
// are serialized and wake all waiting readers; bytes are never mutated
// or truncated once appended, so a reader attached at any point
// observes the full history in write order.
type Log struct {
	// NOTE: the buffer grows indefinitely with no upper bound. The
	// assumption is that 'everything fits in memory' for the life of a
	// worker. In a production system, we'd need to look at alternative
	// strategies, such as flushing the buffer to disk and reconstructing
	// the segments for new readers.
	buffer  []byte
	closed  bool
	readers int

	mu   sync.Mutex
	cond *sync.Cond
}

// NewLog creates an empty, open Log.
func NewLog() *Log {
	l := &Log{
		buffer: make([]byte, 0, initialBufferCapacity),
	}

	l.cond = sync.NewCond(&l.mu)

	return l
}

// Write appends p to the log and wakes any waiting readers. It
// implements io.Writer so a Log can be wired directly as a process
// stdout/stderr sink. Writing to a closed Log returns io.ErrClosedPipe.
func (l *Log) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, io.ErrClosedPipe
	}

	l.buffer = append(l.buffer, p...)

	l.cond.Broadcast()

	return len(p), nil
}

// Close marks the log complete. The length is final from this point;
// readers that drain the buffer then receive io.EOF. Close is
// idempotent.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.closed = true
		l.cond.Broadcast()
	}

	return nil
}

// Closed reports whether the log has been closed.
func (l *Log) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed
}

// Len returns the number of bytes appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buffer)
}

// Bytes returns a copy of everything appended so far.
func (l *Log) Bytes() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := make([]byte, len(l.buffer))
	copy(b, l.buffer)

	return b
}

// Readers returns the number of attached (not yet closed) readers.
func (l *Log) Readers() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.readers
}

// NewReader returns a reader positioned at the start of the log. Every
// reader progresses independently; a reader created after Close still
// observes the entire byte history before EOF.
func (l *Log) NewReader() io.ReadCloser {
	l.mu.Lock()
	l.readers++
	l.mu.Unlock()

	return &reader{l: l}
}
