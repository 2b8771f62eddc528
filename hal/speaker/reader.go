package speaker

import (
	"sync/atomic"

	"github.com/ardnew/usbsai/hal"
)

// chunkReader serves queued chunks to the audio driver and reports
// progress. Read is only called from the driver's goroutine.
type chunkReader struct {
	queue     chan []byte
	frameSize int

	current []byte
	pos     int
	half    int
	halfHit bool

	handler   atomic.Pointer[hal.EventHandler]
	underruns atomic.Uint64
	played    atomic.Uint64
}

func newChunkReader(depth, frameSize int) *chunkReader {
	return &chunkReader{
		queue:     make(chan []byte, depth),
		frameSize: max(frameSize, 1),
	}
}

// Read fills p with queued audio, padding with silence on underrun.
// It always returns len(p) bytes.
func (r *chunkReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.current == nil && !r.next() {
			r.underruns.Add(1)
			clear(p[n:])
			return len(p), nil
		}

		end := len(r.current)
		if !r.halfHit {
			end = r.half
		}
		c := copy(p[n:], r.current[r.pos:end])
		r.pos += c
		n += c
		r.played.Add(uint64(c))

		if !r.halfHit && r.pos == r.half {
			r.halfHit = true
			r.emit(hal.EventHalf)
		}
		if r.pos == len(r.current) {
			r.current = nil
			r.emit(hal.EventFull)
		}
	}
	return n, nil
}

// next dequeues the next chunk without waiting.
func (r *chunkReader) next() bool {
	select {
	case chunk := <-r.queue:
		r.current = chunk
		r.pos = 0
		r.half = len(chunk) / 2
		r.half -= r.half % r.frameSize
		r.halfHit = false
		return true
	default:
		return false
	}
}

// flush discards queued chunks.
func (r *chunkReader) flush() {
	for {
		select {
		case <-r.queue:
		default:
			return
		}
	}
}

func (r *chunkReader) emit(ev hal.Event) {
	if h := r.handler.Load(); h != nil {
		(*h)(ev)
	}
}
