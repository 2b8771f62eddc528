package audio

import "math"

// FeedbackSize is the size of a serialized feedback sample in bytes.
const FeedbackSize = 3

// feedbackShift is the number of fractional bits below the integer rate.
const feedbackShift = 6

// feedbackMask keeps a feedback value within 24 bits.
const feedbackMask = 1<<(8*FeedbackSize) - 1

// Feedback is the clock rate reported to the host on the feedback endpoint.
// It occupies 24 bits and is serialized little-endian; the integer rate sits
// above 6 fractional bits, so 44100 Hz encodes as 0x2B1100.
type Feedback uint32

// DefaultFeedback is the feedback for the fixed 44100 Hz stream.
const DefaultFeedback Feedback = SampleRate << feedbackShift

// FeedbackForRate encodes a sample rate in Hz.
func FeedbackForRate(hz float64) Feedback {
	if hz <= 0 {
		return 0
	}
	v := math.Round(hz * (1 << feedbackShift))
	if v > feedbackMask {
		return feedbackMask
	}
	return Feedback(v)
}

// Rate returns the encoded sample rate in Hz.
func (f Feedback) Rate() float64 {
	return float64(f&feedbackMask) / (1 << feedbackShift)
}

// MarshalTo writes the feedback sample to buf.
// Returns the number of bytes written (3), or 0 if buf is too small.
func (f Feedback) MarshalTo(buf []byte) int {
	if len(buf) < FeedbackSize {
		return 0
	}
	buf[0] = byte(f)
	buf[1] = byte(f >> 8)
	buf[2] = byte(f >> 16)
	return FeedbackSize
}

// Bytes returns the serialized feedback sample.
func (f Feedback) Bytes() [FeedbackSize]byte {
	var b [FeedbackSize]byte
	f.MarshalTo(b[:])
	return b
}

// ParseFeedback parses a serialized feedback sample.
// Returns false if data is too short.
func ParseFeedback(data []byte, out *Feedback) bool {
	if len(data) < FeedbackSize {
		return false
	}
	*out = Feedback(data[0]) | Feedback(data[1])<<8 | Feedback(data[2])<<16
	return true
}

// FillLevel describes how full the elastic buffer is.
type FillLevel struct {
	Buffered int // Bytes waiting to be transmitted
	Capacity int // Total buffer capacity
}

// FeedbackSource computes the feedback sample for the current fill level.
type FeedbackSource interface {
	Feedback(level FillLevel) Feedback
}

// FixedFeedback reports the same value regardless of fill level.
type FixedFeedback Feedback

// Feedback implements [FeedbackSource].
func (f FixedFeedback) Feedback(FillLevel) Feedback {
	return Feedback(f)
}

// AdaptiveFeedback corrects the nominal rate in proportion to how far the
// buffer is from its target fill level. A fuller buffer reports a lower
// rate so the host sends fewer samples per frame.
type AdaptiveFeedback struct {
	// Nominal is the feedback reported at the target fill level.
	Nominal Feedback

	// Target is the desired number of buffered bytes.
	// Zero selects half of the capacity.
	Target int

	// Gain is the feedback change, in encoded units, per byte of deviation.
	Gain float64

	// MaxDeviation bounds the correction in encoded units.
	// Zero selects 1% of Nominal.
	MaxDeviation Feedback
}

// Feedback implements [FeedbackSource].
func (a AdaptiveFeedback) Feedback(level FillLevel) Feedback {
	target := a.Target
	if target == 0 {
		target = level.Capacity / 2
	}
	limit := float64(a.MaxDeviation)
	if limit == 0 {
		limit = float64(a.Nominal) / 100
	}

	delta := a.Gain * float64(target-level.Buffered)
	delta = math.Max(-limit, math.Min(limit, delta))

	v := math.Round(float64(a.Nominal) + delta)
	if v < 0 {
		return 0
	}
	if v > feedbackMask {
		return feedbackMask
	}
	return Feedback(v)
}
