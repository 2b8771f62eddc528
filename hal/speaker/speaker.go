package speaker

import (
	"context"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ardnew/usbsai/hal"
	"github.com/ardnew/usbsai/pkg"
)

// DefaultDepth is the default number of queued chunks.
const DefaultDepth = 2

var (
	otoCtx    *oto.Context
	otoFormat hal.Format
	otoMutex  sync.Mutex
)

// openContext returns the process-wide oto context, creating it for format
// on first use.
func openContext(ctx context.Context, format hal.Format) (*oto.Context, error) {
	otoMutex.Lock()
	defer otoMutex.Unlock()

	if otoCtx != nil {
		if format != otoFormat {
			return nil, fmt.Errorf("%w: audio device already opened at %d Hz", pkg.ErrBusy, otoFormat.SampleRate)
		}
		return otoCtx, nil
	}

	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	otoCtx = c
	otoFormat = format
	return c, nil
}

// HAL implements hal.Transmitter over the host sound card.
type HAL struct {
	depth int

	mutex   sync.Mutex
	reader  *chunkReader
	context *oto.Context
	player  *oto.Player
	running bool
	handler hal.EventHandler
}

// New creates a speaker HAL queueing up to depth chunks.
func New(depth int) *HAL {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &HAL{depth: depth}
}

// Init opens the sound card for format. Only 16-bit PCM is supported.
func (h *HAL) Init(ctx context.Context, format hal.Format) error {
	if format.BitDepth != 16 {
		return fmt.Errorf("%w: %d-bit output", pkg.ErrUnsupportedFormat, format.BitDepth)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.context != nil {
		return pkg.ErrAlreadyRunning
	}

	c, err := openContext(ctx, format)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}

	h.context = c
	h.reader = newChunkReader(h.depth, format.FrameSize())
	if handler := h.handler; handler != nil {
		h.reader.handler.Store(&handler)
	}

	pkg.LogInfo(pkg.ComponentHAL, "speaker HAL initialized",
		"sampleRate", format.SampleRate,
		"channels", format.Channels)
	return nil
}

// Start begins playback.
func (h *HAL) Start() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.context == nil {
		return pkg.ErrNotConfigured
	}
	if h.running {
		return pkg.ErrAlreadyRunning
	}

	h.player = h.context.NewPlayer(h.reader)
	h.player.Play()
	h.running = true
	return nil
}

// Stop pauses playback and discards queued chunks.
func (h *HAL) Stop() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.player != nil {
		h.player.Pause()
		h.player = nil
	}
	if h.reader != nil {
		h.reader.flush()
		pkg.LogInfo(pkg.ComponentHAL, "speaker HAL stopped",
			"played", h.reader.played.Load(),
			"underruns", h.reader.underruns.Load())
	}
	h.running = false
	h.context = nil
	return nil
}

// SetEventHandler registers the transmit event handler.
func (h *HAL) SetEventHandler(handler hal.EventHandler) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.handler = handler
	if h.reader == nil {
		return
	}
	if handler == nil {
		h.reader.handler.Store(nil)
		return
	}
	h.reader.handler.Store(&handler)
}

// Ready returns true if a chunk can be queued immediately.
func (h *HAL) Ready() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.running && len(h.reader.queue) < cap(h.reader.queue)
}

// Transmit queues chunk for playback.
func (h *HAL) Transmit(chunk []byte) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.running {
		return pkg.ErrNotRunning
	}
	if err := h.player.Err(); err != nil {
		return err
	}

	select {
	case h.reader.queue <- chunk:
		return nil
	default:
		return pkg.ErrBusy
	}
}

var _ hal.Transmitter = (*HAL)(nil)
