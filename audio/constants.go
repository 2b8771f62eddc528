package audio

import "github.com/ardnew/usbsai/hal"

// PCM stream parameters. The sample format is fixed.
const (
	SampleRate     = 44100 // Frames per second
	Channels       = 2     // Stereo
	BitDepth       = 16    // Signed little-endian samples
	FrameSize      = Channels * BitDepth / 8
	BytesPerSecond = SampleRate * FrameSize
)

// Buffer defaults. The capacity is a multiple of the chunk size.
const (
	DefaultCapacity  = 4096 // Ring buffer capacity in bytes
	DefaultChunkSize = 512  // Bytes moved to the transmitter per drain
)

// Format is the PCM format the transmit path is configured for.
var Format = hal.Format{
	SampleRate: SampleRate,
	Channels:   Channels,
	BitDepth:   BitDepth,
}

// SyncOffset identifies which part of the transmit buffer has drained.
type SyncOffset uint8

// Synchronization offsets reported to the USB layer.
const (
	OffsetNone    SyncOffset = 0
	OffsetHalf    SyncOffset = 1
	OffsetFull    SyncOffset = 2
	OffsetUnknown SyncOffset = 3
)

// String returns a human-readable offset name.
func (o SyncOffset) String() string {
	switch o {
	case OffsetNone:
		return "none"
	case OffsetHalf:
		return "half"
	case OffsetFull:
		return "full"
	default:
		return "unknown"
	}
}

// offsetFor maps a transmit event to the offset reported upstream.
func offsetFor(ev hal.Event) SyncOffset {
	switch ev {
	case hal.EventHalf:
		return OffsetHalf
	case hal.EventFull:
		return OffsetFull
	default:
		return OffsetUnknown
	}
}

// State is the lifecycle state of a [Stream].
type State uint32

// Stream states.
const (
	StateIdle      State = iota // No active stream
	StateStreaming              // Accepting USB audio and draining
	StateFaulted                // Transmit path failed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}
