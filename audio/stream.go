package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardnew/usbsai/hal"
	"github.com/ardnew/usbsai/pkg"
	"github.com/ardnew/usbsai/ring"
)

// SyncNotifier receives the synchronization offset after each transmit
// event. It is implemented by the USB audio class layer.
type SyncNotifier interface {
	Sync(offset SyncOffset)
}

// Config holds the stream parameters.
type Config struct {
	// Capacity is the ring buffer size in bytes.
	Capacity int

	// ChunkSize is the number of bytes handed to the transmitter per drain.
	// Partial chunks are never sent.
	ChunkSize int

	// TransmitRetries is the number of extra attempts after a failed
	// transmit before the stream faults. Zero faults on the first failure.
	TransmitRetries int

	// Feedback computes the feedback sample. Nil selects [DefaultFeedback].
	Feedback FeedbackSource
}

// DefaultConfig returns the configuration of the fixed 44100 Hz design.
func DefaultConfig() Config {
	return Config{
		Capacity:  DefaultCapacity,
		ChunkSize: DefaultChunkSize,
		Feedback:  FixedFeedback(DefaultFeedback),
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d", pkg.ErrInvalidParameter, c.Capacity)
	case c.ChunkSize <= 0 || c.ChunkSize > c.Capacity:
		return fmt.Errorf("%w: chunk size %d", pkg.ErrInvalidParameter, c.ChunkSize)
	case c.ChunkSize%FrameSize != 0:
		return fmt.Errorf("%w: chunk size %d is not a multiple of %d", pkg.ErrInvalidParameter, c.ChunkSize, FrameSize)
	case c.TransmitRetries < 0:
		return fmt.Errorf("%w: transmit retries %d", pkg.ErrInvalidParameter, c.TransmitRetries)
	}
	return nil
}

// Stats is a snapshot of stream counters.
type Stats struct {
	BytesIn       uint64 // Bytes accepted from USB
	Overflows     uint64 // USB frames rejected for lack of space
	Chunks        uint64 // Chunks handed to the transmitter
	SkippedDrains uint64 // Drains skipped because the transmitter was busy
	SyncEvents    uint64 // Offsets reported to the USB layer
	Retries       uint64 // Transmit attempts repeated after a failure
}

// Stream is the transfer orchestrator between USB and the transmit path.
type Stream struct {
	buf      *ring.Buffer
	producer ring.Producer
	consumer ring.Consumer

	tx       hal.Transmitter
	notifier SyncNotifier
	feedback FeedbackSource

	chunkSize int
	retries   int

	// Lifecycle: transitions hold the write lock, events try the read lock.
	mutex sync.RWMutex
	state atomic.Uint32

	// Single-consumer guard for the drain step.
	draining atomic.Bool

	onFault atomic.Pointer[func(error)]

	bytesIn       atomic.Uint64
	overflows     atomic.Uint64
	chunks        atomic.Uint64
	skippedDrains atomic.Uint64
	syncEvents    atomic.Uint64
	retried       atomic.Uint64
}

// NewStream creates an idle stream draining into tx and reporting sync
// offsets to notifier. The notifier may be nil.
//
// NewStream registers the stream as the event handler of tx. The caller
// owns the transmitter lifecycle (Init, Start, Stop).
func NewStream(cfg Config, tx hal.Transmitter, notifier SyncNotifier) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, pkg.ErrNotConfigured
	}

	buf, err := ring.New(cfg.Capacity)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		buf:       buf,
		producer:  buf.Producer(),
		consumer:  buf.Consumer(),
		tx:        tx,
		notifier:  notifier,
		feedback:  cfg.Feedback,
		chunkSize: cfg.ChunkSize,
		retries:   cfg.TransmitRetries,
	}
	if s.feedback == nil {
		s.feedback = FixedFeedback(DefaultFeedback)
	}
	tx.SetEventHandler(s.handleEvent)
	return s, nil
}

// SetFaultHandler sets the callback invoked when the transmit path fails.
// The callback runs in the failing event context; it must not block and
// must not call Init or DeInit synchronously.
func (s *Stream) SetFaultHandler(cb func(error)) {
	if cb == nil {
		s.onFault.Store(nil)
		return
	}
	s.onFault.Store(&cb)
}

// Init resets the buffer and starts accepting audio.
// Returns [pkg.ErrAlreadyRunning] if the stream is already streaming.
func (s *Stream) Init() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.State() == StateStreaming {
		return pkg.ErrAlreadyRunning
	}

	s.buf.Reset()
	s.state.Store(uint32(StateStreaming))

	pkg.LogInfo(pkg.ComponentStream, "stream initialized",
		"capacity", s.buf.Capacity(),
		"chunk", s.chunkSize)
	return nil
}

// DeInit stops accepting audio and discards buffered data.
func (s *Stream) DeInit() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	prev := s.State()
	s.state.Store(uint32(StateIdle))
	s.buf.Reset()

	if prev != StateIdle {
		pkg.LogInfo(pkg.ComponentStream, "stream deinitialized",
			"from", prev.String())
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	return State(s.state.Load())
}

// Capacity returns the buffer capacity in bytes.
func (s *Stream) Capacity() int {
	return s.buf.Capacity()
}

// ChunkSize returns the drain chunk size in bytes.
func (s *Stream) ChunkSize() int {
	return s.chunkSize
}

// Buffered returns the number of bytes waiting to be transmitted.
func (s *Stream) Buffered() int {
	return s.buf.AvailableToRead()
}

// Stats returns a snapshot of the stream counters.
func (s *Stream) Stats() Stats {
	return Stats{
		BytesIn:       s.bytesIn.Load(),
		Overflows:     s.overflows.Load(),
		Chunks:        s.chunks.Load(),
		SkippedDrains: s.skippedDrains.Load(),
		SyncEvents:    s.syncEvents.Load(),
		Retries:       s.retried.Load(),
	}
}

// OnUSBAudioReceived buffers a USB audio frame and then attempts a drain.
//
// Returns [pkg.ErrOverflow] if the frame does not fit; nothing is buffered
// and the USB layer decides whether to drop or stall. Returns
// [pkg.ErrNotStreaming] before Init, [pkg.ErrBusy] during a transition, and
// an error wrapping [pkg.ErrTransmit] once the transmit path has failed.
func (s *Stream) OnUSBAudioReceived(data []byte) error {
	if !s.mutex.TryRLock() {
		return pkg.ErrBusy
	}
	defer s.mutex.RUnlock()

	if err := s.checkStreaming(); err != nil {
		return err
	}

	if err := s.producer.Write(data); err != nil {
		s.overflows.Add(1)
		pkg.LogDebug(pkg.ComponentStream, "usb frame rejected",
			"bytes", len(data),
			"free", s.producer.AvailableToWrite())
		return err
	}
	s.bytesIn.Add(uint64(len(data)))

	return s.drain()
}

// OnDMAEvent handles a transmit progress event: it refills the transmit
// path and reports the matching sync offset to the USB layer.
// Events outside the Streaming state are ignored.
func (s *Stream) OnDMAEvent(ev hal.Event) error {
	if !s.mutex.TryRLock() {
		return nil
	}
	defer s.mutex.RUnlock()

	if s.State() != StateStreaming {
		return nil
	}

	if err := s.drain(); err != nil {
		return err
	}

	s.syncEvents.Add(1)
	if s.notifier != nil {
		s.notifier.Sync(offsetFor(ev))
	}
	return nil
}

// Feedback returns the feedback sample for the current fill level.
func (s *Stream) Feedback() Feedback {
	return s.feedback.Feedback(FillLevel{
		Buffered: s.buf.AvailableToRead(),
		Capacity: s.buf.Capacity(),
	})
}

// FeedbackSample returns the serialized feedback sample.
func (s *Stream) FeedbackSample() [FeedbackSize]byte {
	return s.Feedback().Bytes()
}

// handleEvent adapts OnDMAEvent to [hal.EventHandler].
func (s *Stream) handleEvent(ev hal.Event) {
	if err := s.OnDMAEvent(ev); err != nil {
		pkg.LogDebug(pkg.ComponentStream, "transmit event failed",
			"event", ev.String(),
			"error", err)
	}
}

// checkStreaming reports why the stream cannot accept audio, if it cannot.
func (s *Stream) checkStreaming() error {
	switch s.State() {
	case StateStreaming:
		return nil
	case StateFaulted:
		return pkg.ErrTransmit
	default:
		return pkg.ErrNotStreaming
	}
}

// drain moves one chunk to the transmitter if a full chunk is buffered and
// the transmitter can take it. Only one caller drains at a time.
func (s *Stream) drain() error {
	if !s.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer s.draining.Store(false)

	if s.consumer.AvailableToRead() < s.chunkSize {
		return nil
	}
	if !s.tx.Ready() {
		s.skippedDrains.Add(1)
		return nil
	}

	chunk, err := s.consumer.ReadChunk(s.chunkSize)
	if err != nil {
		return nil
	}
	return s.transmit(chunk)
}

// transmit hands chunk to the transmitter, retrying within the configured
// bound before faulting the stream.
func (s *Stream) transmit(chunk []byte) error {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err = s.tx.Transmit(chunk); err == nil {
			s.chunks.Add(1)
			return nil
		}
		if attempt < s.retries {
			s.retried.Add(1)
			pkg.LogWarn(pkg.ComponentStream, "transmit failed, retrying",
				"attempt", attempt+1,
				"error", err)
		}
	}
	return s.fault(err)
}

// fault moves the stream to the Faulted state and reports err.
func (s *Stream) fault(err error) error {
	s.state.Store(uint32(StateFaulted))
	err = fmt.Errorf("%w: %w", pkg.ErrTransmit, err)

	pkg.LogError(pkg.ComponentStream, "transmit path failed",
		"error", err,
		"buffered", s.buf.AvailableToRead())

	if cb := s.onFault.Load(); cb != nil {
		(*cb)(err)
	}
	return err
}
