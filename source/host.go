package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ardnew/usbsai/audio"
	"github.com/ardnew/usbsai/pkg"
)

// DefaultInterval is the full-speed USB frame period.
const DefaultInterval = time.Millisecond

// MaxFrameSize is the largest frame delivered at the maximum skew.
const MaxFrameSize = 2 * (audio.SampleRate/1000 + 1) * audio.FrameSize

// MaxSkewPPM bounds the clock skew accepted by [WithSkew].
const MaxSkewPPM = 100_000

const ppmScale = 1_000_000

// DeliverFunc receives one USB frame. The frame is only valid for the
// duration of the call.
type DeliverFunc func(frame []byte) error

// Stats holds host delivery counters.
type Stats struct {
	Frames  uint64 // Frames delivered
	Bytes   uint64 // Bytes accepted by the device
	Dropped uint64 // Frames rejected with overflow or busy
}

// Host delivers PCM from a reader as a USB host would.
type Host struct {
	r        io.Reader
	deliver  DeliverFunc
	skewPPM  int64
	interval time.Duration

	acc int64
	buf []byte

	frames  atomic.Uint64
	bytes   atomic.Uint64
	dropped atomic.Uint64
}

// Option configures a Host.
type Option func(*Host)

// WithSkew sets the host clock skew in parts per million. Positive values
// send faster than the nominal rate. The value is clamped to ±MaxSkewPPM.
func WithSkew(ppm int) Option {
	return func(h *Host) {
		h.skewPPM = int64(max(-MaxSkewPPM, min(ppm, MaxSkewPPM)))
	}
}

// WithInterval sets the delay between frames. Zero delivers frames as fast
// as the device accepts them.
func WithInterval(d time.Duration) Option {
	return func(h *Host) {
		h.interval = max(d, 0)
	}
}

// NewHost creates a host reading PCM from r and passing frames to deliver.
func NewHost(r io.Reader, deliver DeliverFunc, opts ...Option) *Host {
	h := &Host{
		r:        r,
		deliver:  deliver,
		interval: DefaultInterval,
		buf:      make([]byte, MaxFrameSize),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NextFrameSize returns the size in bytes of the next frame and advances
// the fractional frame accumulator.
func (h *Host) NextFrameSize() int {
	const unit = 1000 * ppmScale
	h.acc += audio.SampleRate * (ppmScale + h.skewPPM)
	frames := h.acc / unit
	h.acc %= unit
	return int(frames) * audio.FrameSize
}

// Run delivers frames until the reader is exhausted or ctx is done.
// Overflow and busy rejections are counted and the frame is dropped; any
// other delivery error stops the host.
func (h *Host) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if h.interval > 0 {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		frame := h.buf[:h.NextFrameSize()]
		n, err := io.ReadFull(h.r, frame)
		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return fmt.Errorf("read PCM: %w", err)
		}

		n -= n % audio.FrameSize
		if n > 0 {
			if err := h.send(frame[:n]); err != nil {
				return err
			}
		}
		if eof {
			pkg.LogInfo(pkg.ComponentSource, "end of input",
				"frames", h.frames.Load(),
				"dropped", h.dropped.Load())
			return nil
		}
	}
}

func (h *Host) send(frame []byte) error {
	h.frames.Add(1)

	err := h.deliver(frame)
	switch {
	case err == nil:
		h.bytes.Add(uint64(len(frame)))
		return nil
	case errors.Is(err, pkg.ErrOverflow), errors.Is(err, pkg.ErrBusy):
		h.dropped.Add(1)
		pkg.LogDebug(pkg.ComponentSource, "frame dropped",
			"bytes", len(frame),
			"error", err)
		return nil
	default:
		return fmt.Errorf("deliver frame: %w", err)
	}
}

// Stats returns a snapshot of the delivery counters.
func (h *Host) Stats() Stats {
	return Stats{
		Frames:  h.frames.Load(),
		Bytes:   h.bytes.Load(),
		Dropped: h.dropped.Load(),
	}
}
