package ring

import (
	"sync/atomic"

	"github.com/ardnew/usbsai/pkg"
)

// Buffer is a fixed-capacity single-producer/single-consumer byte ring.
type Buffer struct {
	// Producer and consumer counters on separate cache lines.
	write atomic.Uint64
	_     [56]byte
	read  atomic.Uint64
	_     [56]byte

	storage []byte
}

// New creates a buffer holding up to capacity bytes.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, pkg.ErrInvalidParameter
	}
	return &Buffer{storage: make([]byte, capacity)}, nil
}

// Capacity returns the total number of bytes the buffer can hold.
func (b *Buffer) Capacity() int {
	return len(b.storage)
}

// AvailableToRead returns the number of buffered bytes.
func (b *Buffer) AvailableToRead() int {
	r := b.read.Load()
	return int(b.write.Load() - r)
}

// AvailableToWrite returns the number of free bytes.
func (b *Buffer) AvailableToWrite() int {
	return len(b.storage) - b.AvailableToRead()
}

// WriteCursor returns the storage index of the next byte to be written.
func (b *Buffer) WriteCursor() int {
	return int(b.write.Load() % uint64(len(b.storage)))
}

// ReadCursor returns the storage index of the next byte to be read.
func (b *Buffer) ReadCursor() int {
	return int(b.read.Load() % uint64(len(b.storage)))
}

// Write copies all of p into the buffer.
// Returns [pkg.ErrOverflow] without modifying the buffer if p does not fit.
// Only the producer may call Write.
func (b *Buffer) Write(p []byte) error {
	w := b.write.Load()
	r := b.read.Load()

	free := uint64(len(b.storage)) - (w - r)
	n := uint64(len(p))
	if n > free {
		return pkg.ErrOverflow
	}
	if n == 0 {
		return nil
	}

	pos := w % uint64(len(b.storage))
	first := copy(b.storage[pos:], p)
	copy(b.storage, p[first:])

	// Publish only after the bytes are in place.
	b.write.Store(w + n)
	return nil
}

// ReadChunk removes k bytes from the buffer and returns them in a newly
// allocated slice owned by the caller.
// Returns [pkg.ErrUnderflow] without modifying the buffer if fewer than k
// bytes are buffered. Only the consumer may call ReadChunk.
func (b *Buffer) ReadChunk(k int) ([]byte, error) {
	if k < 0 {
		return nil, pkg.ErrInvalidParameter
	}
	if k > b.AvailableToRead() {
		return nil, pkg.ErrUnderflow
	}
	chunk := make([]byte, k)
	if err := b.ReadInto(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// ReadInto fills dst completely from the buffer.
// Returns [pkg.ErrUnderflow] without modifying the buffer if fewer than
// len(dst) bytes are buffered. Only the consumer may call ReadInto.
func (b *Buffer) ReadInto(dst []byte) error {
	r := b.read.Load()
	w := b.write.Load()

	n := uint64(len(dst))
	if n > w-r {
		return pkg.ErrUnderflow
	}
	if n == 0 {
		return nil
	}

	pos := r % uint64(len(b.storage))
	first := copy(dst, b.storage[pos:])
	copy(dst[first:], b.storage)

	// Release the space only after the bytes are copied out.
	b.read.Store(r + n)
	return nil
}

// Reset empties the buffer and moves both cursors to zero.
// The caller must ensure neither the producer nor the consumer is active.
func (b *Buffer) Reset() {
	b.write.Store(0)
	b.read.Store(0)
}

// Producer returns the write-side view of the buffer.
func (b *Buffer) Producer() Producer {
	return Producer{buf: b}
}

// Consumer returns the read-side view of the buffer.
func (b *Buffer) Consumer() Consumer {
	return Consumer{buf: b}
}

// Producer is the write-side view of a [Buffer].
type Producer struct {
	buf *Buffer
}

// Write copies all of p into the buffer. See [Buffer.Write].
func (p Producer) Write(data []byte) error {
	return p.buf.Write(data)
}

// AvailableToWrite returns the number of free bytes.
func (p Producer) AvailableToWrite() int {
	return p.buf.AvailableToWrite()
}

// Consumer is the read-side view of a [Buffer].
type Consumer struct {
	buf *Buffer
}

// ReadChunk removes k bytes from the buffer. See [Buffer.ReadChunk].
func (c Consumer) ReadChunk(k int) ([]byte, error) {
	return c.buf.ReadChunk(k)
}

// ReadInto fills dst from the buffer. See [Buffer.ReadInto].
func (c Consumer) ReadInto(dst []byte) error {
	return c.buf.ReadInto(dst)
}

// AvailableToRead returns the number of buffered bytes.
func (c Consumer) AvailableToRead() int {
	return c.buf.AvailableToRead()
}
