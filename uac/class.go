package uac

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardnew/usbsai/audio"
	"github.com/ardnew/usbsai/hal"
	"github.com/ardnew/usbsai/pkg"
)

// Audio commands passed to [Class.AudioCmd].
const (
	AudioCmdStart uint8 = 0x01
	AudioCmdPlay  uint8 = 0x02
	AudioCmdStop  uint8 = 0x03
)

// FeedbackEndpoint is the isochronous IN endpoint carrying feedback samples.
const FeedbackEndpoint uint8 = 0x81

// Link is the device-stack side of the class: it receives sync offsets and
// transmits data on IN endpoints.
type Link interface {
	audio.SyncNotifier

	// Transmit queues data for the IN endpoint at address.
	Transmit(address uint8, data []byte) error
}

// Class implements the USB Audio streaming interface callbacks.
type Class struct {
	stream *audio.Stream
	link   Link

	mutex       sync.Mutex
	frequency   uint32
	volume      uint8
	muted       bool
	feedbackBuf [audio.FeedbackSize]byte
}

// New creates a class driving a new stream over tx. The link may be nil if
// no feedback endpoint or sync reporting is wanted.
func New(cfg audio.Config, tx hal.Transmitter, link Link) (*Class, error) {
	var notifier audio.SyncNotifier
	if link != nil {
		notifier = link
	}

	stream, err := audio.NewStream(cfg, tx, notifier)
	if err != nil {
		return nil, err
	}

	c := &Class{
		stream: stream,
		link:   link,
	}
	stream.SetFaultHandler(c.onFault)
	return c, nil
}

// Stream returns the underlying stream.
func (c *Class) Stream() *audio.Stream {
	return c.stream
}

// Init starts streaming at frequency. Only [audio.SampleRate] is accepted;
// zero selects it. Init on a streaming class restarts it with an empty
// buffer.
func (c *Class) Init(frequency, volume, options uint32) pkg.Status {
	_ = options

	if frequency == 0 {
		frequency = audio.SampleRate
	}
	if frequency != audio.SampleRate {
		pkg.LogWarn(pkg.ComponentClass, "unsupported sample rate",
			"frequency", frequency,
			"supported", audio.SampleRate)
		return pkg.StatusFail
	}

	c.mutex.Lock()
	c.frequency = frequency
	c.volume = uint8(min(volume, 0xFF))
	c.mutex.Unlock()

	err := c.stream.Init()
	if errors.Is(err, pkg.ErrAlreadyRunning) {
		if err = c.stream.DeInit(); err == nil {
			err = c.stream.Init()
		}
	}
	if err != nil {
		pkg.LogError(pkg.ComponentClass, "init failed", "error", err)
		return pkg.StatusOf(err)
	}

	pkg.LogInfo(pkg.ComponentClass, "audio interface initialized",
		"frequency", frequency,
		"volume", volume)
	return pkg.StatusOK
}

// DeInit stops streaming.
func (c *Class) DeInit(options uint32) pkg.Status {
	_ = options
	return pkg.StatusOf(c.stream.DeInit())
}

// AudioCmd handles an audio command. Start and play carry an isochronous
// OUT payload that is written to the stream; stop carries none.
func (c *Class) AudioCmd(buf []byte, cmd uint8) pkg.Status {
	switch cmd {
	case AudioCmdStart, AudioCmdPlay:
		err := c.stream.OnUSBAudioReceived(buf)
		if err != nil && !errors.Is(err, pkg.ErrBusy) {
			pkg.LogDebug(pkg.ComponentClass, "audio packet rejected",
				"size", len(buf),
				"error", err)
		}
		return pkg.StatusOf(err)

	case AudioCmdStop:
		return pkg.StatusOK

	default:
		pkg.LogWarn(pkg.ComponentClass, "unknown audio command", "cmd", cmd)
		return pkg.StatusFail
	}
}

// VolumeCtl records the host volume setting. No gain is applied.
func (c *Class) VolumeCtl(volume uint8) pkg.Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.volume = volume
	return pkg.StatusOK
}

// MuteCtl records the host mute setting. No samples are altered.
func (c *Class) MuteCtl(cmd uint8) pkg.Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.muted = cmd != 0
	return pkg.StatusOK
}

// PeriodicTC handles the periodic transfer-complete callback.
func (c *Class) PeriodicTC(buf []byte, cmd uint8) pkg.Status {
	_, _ = buf, cmd
	return pkg.StatusOK
}

// GetState returns StatusFail once the transmit path has faulted.
func (c *Class) GetState() pkg.Status {
	if c.stream.State() == audio.StateFaulted {
		return pkg.StatusFail
	}
	return pkg.StatusOK
}

// HalfTransfer forwards a half-transfer event for transmitters that report
// progress to the class rather than through their event handler.
func (c *Class) HalfTransfer() pkg.Status {
	return pkg.StatusOf(c.stream.OnDMAEvent(hal.EventHalf))
}

// TransferComplete forwards a transfer-complete event. See HalfTransfer.
func (c *Class) TransferComplete() pkg.Status {
	return pkg.StatusOf(c.stream.OnDMAEvent(hal.EventFull))
}

// FeedbackUpdate sends the current feedback sample on [FeedbackEndpoint].
func (c *Class) FeedbackUpdate() pkg.Status {
	if c.link == nil {
		return pkg.StatusOf(pkg.ErrNotConfigured)
	}

	c.mutex.Lock()
	c.stream.Feedback().MarshalTo(c.feedbackBuf[:])
	sample := c.feedbackBuf
	c.mutex.Unlock()

	if err := c.link.Transmit(FeedbackEndpoint, sample[:]); err != nil {
		pkg.LogDebug(pkg.ComponentClass, "feedback transmit failed", "error", err)
		return pkg.StatusOf(err)
	}
	return pkg.StatusOK
}

// Frequency returns the sample rate set by Init.
func (c *Class) Frequency() uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.frequency
}

// Volume returns the last volume set by the host.
func (c *Class) Volume() uint8 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.volume
}

// Muted returns the last mute setting from the host.
func (c *Class) Muted() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.muted
}

func (c *Class) onFault(err error) {
	pkg.LogError(pkg.ComponentClass, "audio interface faulted",
		"error", fmt.Errorf("transmit path: %w", err))
}
