package dma

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/usbsai/hal"
	"github.com/ardnew/usbsai/pkg"
)

// DefaultDepth is the default number of queued chunks (double buffering).
const DefaultDepth = 2

// Option configures an [Engine].
type Option func(*Engine)

// WithDepth sets the number of chunks that may be queued.
func WithDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.depth = depth
		}
	}
}

// WithPacing enables or disables real-time pacing (enabled by default).
// Without pacing, halves complete as fast as the sink accepts them.
func WithPacing(paced bool) Option {
	return func(e *Engine) {
		e.paced = paced
	}
}

// Engine is a paced transmit engine over an io.Writer.
type Engine struct {
	sink  io.Writer
	depth int
	paced bool

	mutex    sync.Mutex
	format   hal.Format
	queue    chan []byte
	initDone bool
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	failure  error

	handler atomic.Pointer[hal.EventHandler]

	transmitted atomic.Uint64
	underruns   atomic.Uint64
}

// New creates an engine writing to sink.
func New(sink io.Writer, opts ...Option) *Engine {
	e := &Engine{
		sink:  sink,
		depth: DefaultDepth,
		paced: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init configures the engine for format.
func (e *Engine) Init(ctx context.Context, format hal.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if format.ByteRate() <= 0 {
		return pkg.ErrInvalidParameter
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.initDone {
		return pkg.ErrAlreadyRunning
	}
	e.format = format
	e.queue = make(chan []byte, e.depth)
	e.failure = nil
	e.initDone = true

	pkg.LogDebug(pkg.ComponentDMA, "dma engine initialized",
		"byteRate", format.ByteRate(),
		"depth", e.depth,
		"paced", e.paced)
	return nil
}

// Start begins servicing queued chunks.
func (e *Engine) Start() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.initDone {
		return pkg.ErrNotConfigured
	}
	if e.running {
		return pkg.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true

	go e.run(ctx, e.queue, e.done)
	return nil
}

// Stop halts the engine and discards queued chunks.
// The engine must be initialized again before reuse.
func (e *Engine) Stop() error {
	e.mutex.Lock()
	cancel, done := e.cancel, e.done
	e.running = false
	e.initDone = false
	e.cancel = nil
	e.mutex.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// SetEventHandler registers the transmit event handler.
func (e *Engine) SetEventHandler(handler hal.EventHandler) {
	if handler == nil {
		e.handler.Store(nil)
		return
	}
	e.handler.Store(&handler)
}

// Ready returns true if a chunk can be queued immediately.
func (e *Engine) Ready() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.running && len(e.queue) < cap(e.queue)
}

// Transmit queues chunk without waiting.
// Returns the latched sink error if a previous write failed.
func (e *Engine) Transmit(chunk []byte) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.failure != nil {
		return e.failure
	}
	if !e.running {
		return pkg.ErrNotRunning
	}

	select {
	case e.queue <- chunk:
		return nil
	default:
		return pkg.ErrBusy
	}
}

// Transmitted returns the number of bytes written to the sink.
func (e *Engine) Transmitted() uint64 {
	return e.transmitted.Load()
}

// Underruns returns how many times the queue ran dry after a chunk.
func (e *Engine) Underruns() uint64 {
	return e.underruns.Load()
}

// run services the queue until ctx is cancelled.
func (e *Engine) run(ctx context.Context, queue chan []byte, done chan struct{}) {
	defer close(done)

	var next time.Time
	for {
		var chunk []byte
		select {
		case <-ctx.Done():
			return
		case chunk = <-queue:
		}

		if now := time.Now(); next.Before(now) {
			next = now
		}

		half := len(chunk) / 2
		half -= half % max(e.format.FrameSize(), 1)

		if !e.play(ctx, chunk[:half], &next) {
			return
		}
		e.emit(hal.EventHalf)

		if !e.play(ctx, chunk[half:], &next) {
			return
		}
		if len(queue) == 0 {
			e.underruns.Add(1)
		}
		e.emit(hal.EventFull)
	}
}

// play writes p to the sink and, when paced, waits until its playback
// deadline. Returns false if ctx was cancelled.
func (e *Engine) play(ctx context.Context, p []byte, next *time.Time) bool {
	if _, err := e.sink.Write(p); err != nil {
		e.mutex.Lock()
		if e.failure == nil {
			e.failure = err
			pkg.LogError(pkg.ComponentDMA, "sink write failed", "error", err)
		}
		e.mutex.Unlock()
	} else {
		e.transmitted.Add(uint64(len(p)))
	}

	if !e.paced {
		return ctx.Err() == nil
	}

	*next = next.Add(time.Duration(len(p)) * time.Second / time.Duration(e.format.ByteRate()))
	timer := time.NewTimer(time.Until(*next))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// emit delivers ev to the registered handler.
func (e *Engine) emit(ev hal.Event) {
	if h := e.handler.Load(); h != nil {
		(*h)(ev)
	}
}

var _ hal.Transmitter = (*Engine)(nil)
