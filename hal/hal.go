package hal

import (
	"context"
)

// Event is a transmit progress notification.
type Event uint8

// Event values. Each transmitted chunk produces EventHalf followed by
// EventFull.
const (
	EventHalf Event = iota + 1 // First half of the chunk has been clocked out
	EventFull                  // Entire chunk has been clocked out
)

// String returns a human-readable event name.
func (e Event) String() string {
	switch e {
	case EventHalf:
		return "half"
	case EventFull:
		return "full"
	default:
		return "unknown"
	}
}

// EventHandler receives transmit progress events.
// Handlers run in the HAL's completion context and must not block.
type EventHandler func(Event)

// Format describes the PCM stream a transmitter is configured for.
type Format struct {
	SampleRate int // Frames per second
	Channels   int // Interleaved channels per frame
	BitDepth   int // Bits per sample
}

// FrameSize returns the size of one interleaved frame in bytes.
func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

// ByteRate returns the number of bytes clocked out per second.
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// Transmitter defines the Hardware Abstraction Layer for the audio transmit path.
//
// Implementations should be safe for concurrent use: Ready and Transmit are
// called from the USB receive context and from the event handler context.
type Transmitter interface {
	// Init prepares the peripheral for the given PCM format.
	// The context can be used to cancel initialization.
	Init(ctx context.Context, format Format) error

	// Start enables the peripheral. Events are delivered only after Start.
	Start() error

	// Stop disables the peripheral and releases its resources.
	// Chunks still queued are discarded.
	Stop() error

	// SetEventHandler registers the handler for transmit events.
	// Pass nil to stop delivering events.
	SetEventHandler(handler EventHandler)

	// Ready returns true if Transmit can accept another chunk immediately.
	Ready() bool

	// Transmit queues a chunk for output and returns without waiting.
	// Returns pkg.ErrBusy if no slot is free, or the error of a failed
	// hardware operation.
	Transmit(chunk []byte) error
}
