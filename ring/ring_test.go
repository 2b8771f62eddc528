package ring

import (
	"bytes"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ardnew/usbsai/pkg"
)

const (
	testCapacity = 4096
	testChunk    = 512
)

// pattern returns n bytes continuing a counting sequence from start.
func pattern(start, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(start + i)
	}
	return p
}

func newTestBuffer(t *testing.T, capacity int) *Buffer {
	t.Helper()
	b, err := New(capacity)
	if err != nil {
		t.Fatalf("New(%d) error = %v", capacity, err)
	}
	return b
}

func TestNew(t *testing.T) {
	tests := []struct {
		capacity int
		wantErr  bool
	}{
		{testCapacity, false},
		{1, false},
		{0, true},
		{-1, true},
	}

	for _, tt := range tests {
		b, err := New(tt.capacity)
		if tt.wantErr {
			if !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Errorf("New(%d) error = %v, want ErrInvalidParameter", tt.capacity, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%d) error = %v", tt.capacity, err)
		}
		if b.Capacity() != tt.capacity {
			t.Errorf("Capacity() = %d, want %d", b.Capacity(), tt.capacity)
		}
		if b.AvailableToRead() != 0 || b.AvailableToWrite() != tt.capacity {
			t.Errorf("new buffer read=%d write=%d", b.AvailableToRead(), b.AvailableToWrite())
		}
	}
}

func TestBuffer_RoundTrip(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	data := pattern(7, 300)
	if err := b.Write(data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := b.ReadChunk(len(data))
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("ReadChunk() returned different bytes than written")
	}
	if b.AvailableToRead() != 0 {
		t.Errorf("AvailableToRead() = %d, want 0", b.AvailableToRead())
	}
}

func TestBuffer_ReadChunkIsFresh(t *testing.T) {
	b := newTestBuffer(t, 16)

	if err := b.Write(pattern(0, 8)); err != nil {
		t.Fatal(err)
	}
	chunk, err := b.ReadChunk(8)
	if err != nil {
		t.Fatal(err)
	}
	// Overwrite the same storage region.
	if err := b.Write(bytes.Repeat([]byte{0xFF}, 16)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(chunk, pattern(0, 8)) {
		t.Error("chunk aliases buffer storage")
	}
}

func TestBuffer_SumInvariant(t *testing.T) {
	b := newTestBuffer(t, testCapacity)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		if rng.Intn(2) == 0 {
			_ = b.Write(make([]byte, rng.Intn(700)))
		} else {
			_, _ = b.ReadChunk(rng.Intn(700))
		}
		if sum := b.AvailableToRead() + b.AvailableToWrite(); sum != testCapacity {
			t.Fatalf("step %d: read+write = %d, want %d", i, sum, testCapacity)
		}
		want := (b.WriteCursor() - b.ReadCursor() + testCapacity) % testCapacity
		if got := b.AvailableToRead() % testCapacity; got != want {
			t.Fatalf("step %d: cursor distance %d, available %d", i, want, got)
		}
	}
}

func TestBuffer_OverflowLeavesStateUnchanged(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	existing := pattern(0, 4000)
	if err := b.Write(existing); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	cursor := b.WriteCursor()

	err := b.Write(pattern(100, 97))
	if !errors.Is(err, pkg.ErrOverflow) {
		t.Fatalf("Write() error = %v, want ErrOverflow", err)
	}
	if b.WriteCursor() != cursor {
		t.Errorf("WriteCursor() = %d, want %d", b.WriteCursor(), cursor)
	}
	if b.AvailableToRead() != len(existing) {
		t.Errorf("AvailableToRead() = %d, want %d", b.AvailableToRead(), len(existing))
	}

	got, err := b.ReadChunk(len(existing))
	if err != nil {
		t.Fatalf("ReadChunk() error = %v", err)
	}
	if !bytes.Equal(got, existing) {
		t.Error("pre-existing data corrupted by failed write")
	}
}

func TestBuffer_UnderflowLeavesStateUnchanged(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	if err := b.Write(pattern(0, testChunk-1)); err != nil {
		t.Fatal(err)
	}
	cursor := b.ReadCursor()

	if _, err := b.ReadChunk(testChunk); !errors.Is(err, pkg.ErrUnderflow) {
		t.Fatalf("ReadChunk() error = %v, want ErrUnderflow", err)
	}
	if err := b.ReadInto(make([]byte, testChunk)); !errors.Is(err, pkg.ErrUnderflow) {
		t.Fatalf("ReadInto() error = %v, want ErrUnderflow", err)
	}
	if b.ReadCursor() != cursor {
		t.Errorf("ReadCursor() = %d, want %d", b.ReadCursor(), cursor)
	}
	if b.AvailableToRead() != testChunk-1 {
		t.Errorf("AvailableToRead() = %d, want %d", b.AvailableToRead(), testChunk-1)
	}
}

func TestBuffer_ReadChunkInvalid(t *testing.T) {
	b := newTestBuffer(t, 8)
	if _, err := b.ReadChunk(-1); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("ReadChunk(-1) error = %v, want ErrInvalidParameter", err)
	}
	chunk, err := b.ReadChunk(0)
	if err != nil || len(chunk) != 0 {
		t.Errorf("ReadChunk(0) = %v, %v", chunk, err)
	}
}

func TestBuffer_WrapAround(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	const size = 500
	for cycle := 0; cycle < 9; cycle++ {
		data := pattern(cycle*size, size)
		if err := b.Write(data); err != nil {
			t.Fatalf("cycle %d: Write() error = %v", cycle, err)
		}
		got, err := b.ReadChunk(size)
		if err != nil {
			t.Fatalf("cycle %d: ReadChunk() error = %v", cycle, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("cycle %d: data corrupted across wrap", cycle)
		}
	}
	if want := (9 * size) % testCapacity; b.WriteCursor() != want || b.ReadCursor() != want {
		t.Errorf("cursors = (%d, %d), want %d", b.WriteCursor(), b.ReadCursor(), want)
	}
}

func TestBuffer_WrapAroundChunked(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	var written, read int
	for cycle := 0; cycle < 9; cycle++ {
		if err := b.Write(pattern(written, 500)); err != nil {
			t.Fatalf("cycle %d: Write() error = %v", cycle, err)
		}
		written += 500
		for b.AvailableToRead() >= testChunk {
			got, err := b.ReadChunk(testChunk)
			if err != nil {
				t.Fatalf("cycle %d: ReadChunk() error = %v", cycle, err)
			}
			if !bytes.Equal(got, pattern(read, testChunk)) {
				t.Fatalf("cycle %d: chunk at %d out of order", cycle, read)
			}
			read += testChunk
		}
	}
	if b.AvailableToRead() != written-read {
		t.Errorf("AvailableToRead() = %d, want %d", b.AvailableToRead(), written-read)
	}
}

func TestBuffer_ChunkScenario(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	if err := b.Write(pattern(0, 1000)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ReadChunk(testChunk); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if got := b.AvailableToRead(); got != 488 {
		t.Fatalf("after first chunk AvailableToRead() = %d, want 488", got)
	}

	if err := b.Write(pattern(1000, 50)); err != nil {
		t.Fatal(err)
	}
	if got := b.AvailableToRead(); got != 538 {
		t.Fatalf("after second write AvailableToRead() = %d, want 538", got)
	}

	chunk, err := b.ReadChunk(testChunk)
	if err != nil {
		t.Fatalf("second chunk: %v", err)
	}
	if !bytes.Equal(chunk, pattern(512, testChunk)) {
		t.Error("second chunk out of order")
	}
	if _, err := b.ReadChunk(testChunk); !errors.Is(err, pkg.ErrUnderflow) {
		t.Errorf("third chunk error = %v, want ErrUnderflow", err)
	}
	if got := b.AvailableToRead(); got != 26 {
		t.Errorf("remaining = %d, want 26", got)
	}
}

// The full capacity is usable: cursors coincide but occupancy is explicit.
func TestBuffer_FullCapacityWrite(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	data := pattern(3, testCapacity)
	if err := b.Write(data); err != nil {
		t.Fatalf("Write(C bytes) error = %v, want nil", err)
	}
	if b.WriteCursor() != b.ReadCursor() {
		t.Errorf("cursors = (%d, %d), want equal", b.WriteCursor(), b.ReadCursor())
	}
	if b.AvailableToRead() != testCapacity || b.AvailableToWrite() != 0 {
		t.Errorf("read=%d write=%d, want %d and 0", b.AvailableToRead(), b.AvailableToWrite(), testCapacity)
	}
	if err := b.Write([]byte{0}); !errors.Is(err, pkg.ErrOverflow) {
		t.Errorf("Write() on full buffer error = %v, want ErrOverflow", err)
	}
	got, err := b.ReadChunk(testCapacity)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("full-capacity round trip corrupted")
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := newTestBuffer(t, testCapacity)

	if err := b.Write(pattern(0, 1234)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ReadChunk(100); err != nil {
		t.Fatal(err)
	}
	b.Reset()

	if b.WriteCursor() != 0 || b.ReadCursor() != 0 {
		t.Errorf("cursors = (%d, %d), want (0, 0)", b.WriteCursor(), b.ReadCursor())
	}
	if b.AvailableToRead() != 0 || b.AvailableToWrite() != testCapacity {
		t.Errorf("read=%d write=%d after Reset", b.AvailableToRead(), b.AvailableToWrite())
	}
}

func TestBuffer_Handles(t *testing.T) {
	b := newTestBuffer(t, 64)
	prod, cons := b.Producer(), b.Consumer()

	if err := prod.Write(pattern(0, 40)); err != nil {
		t.Fatal(err)
	}
	if prod.AvailableToWrite() != 24 || cons.AvailableToRead() != 40 {
		t.Errorf("write=%d read=%d, want 24 and 40", prod.AvailableToWrite(), cons.AvailableToRead())
	}
	dst := make([]byte, 8)
	if err := cons.ReadInto(dst); err != nil {
		t.Fatal(err)
	}
	chunk, err := cons.ReadChunk(32)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(append(dst, chunk...), pattern(0, 40)) {
		t.Error("handles returned bytes out of order")
	}
}

func TestBuffer_ConcurrentProducerConsumer(t *testing.T) {
	b := newTestBuffer(t, 1024)
	const total = 1 << 18

	var wg sync.WaitGroup
	var stop atomic.Bool
	wg.Add(2)

	go func() {
		defer wg.Done()
		prod := b.Producer()
		for sent := 0; sent < total && !stop.Load(); {
			n := 1 + sent%177
			if sent+n > total {
				n = total - sent
			}
			if prod.Write(pattern(sent, n)) == nil {
				sent += n
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		defer wg.Done()
		cons := b.Consumer()
		chunk := make([]byte, 64)
		for got := 0; got < total; {
			if got+len(chunk) > total {
				chunk = chunk[:total-got]
			}
			if cons.ReadInto(chunk) != nil {
				continue
			}
			if !bytes.Equal(chunk, pattern(got, len(chunk))) {
				errCh <- errors.New("consumer observed out-of-order bytes")
				stop.Store(true)
				return
			}
			got += len(chunk)
		}
	}()

	wg.Wait()
	select {
	case err := <-errCh:
		t.Fatal(err)
	default:
	}
}
