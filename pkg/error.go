package pkg

import "errors"

// Buffer and stream errors.
var (
	// ErrOverflow indicates a write larger than the free space of a buffer.
	ErrOverflow = errors.New("buffer overflow")

	// ErrUnderflow indicates a read larger than the buffered data.
	ErrUnderflow = errors.New("buffer underflow")

	// ErrTransmit indicates the hardware transmit path failed.
	ErrTransmit = errors.New("transmit failed")

	// ErrNotStreaming indicates the stream has not been initialized.
	ErrNotStreaming = errors.New("stream not active")

	// ErrAlreadyRunning indicates the component is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the component is not running.
	ErrNotRunning = errors.New("not running")

	// ErrBusy indicates the resource is busy.
	ErrBusy = errors.New("resource busy")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotConfigured indicates a required collaborator is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrUnsupportedFormat indicates audio that is not PCM16 stereo 44100 Hz.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")
)

// Status is a result code returned to the USB class layer.
// The values follow the common USB device-stack status encoding.
type Status int8

// Status values.
const (
	StatusOK   Status = 0 // Request handled
	StatusBusy Status = 1 // Resource busy, try again
	StatusMem  Status = 2 // Out of buffer space
	StatusFail Status = 3 // Request failed
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBusy:
		return "busy"
	case StatusMem:
		return "mem"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Error returns the error corresponding to the status.
func (s Status) Error() error {
	switch s {
	case StatusOK:
		return nil
	case StatusBusy:
		return ErrBusy
	case StatusMem:
		return ErrOverflow
	default:
		return ErrTransmit
	}
}

// StatusOf maps an error to the status reported to the class layer.
// Overflow is reported as StatusFail: the class layer only distinguishes
// success from failure for audio data.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrBusy):
		return StatusBusy
	default:
		return StatusFail
	}
}
