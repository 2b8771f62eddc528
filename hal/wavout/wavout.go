package wavout

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ardnew/usbsai/hal"
	"github.com/ardnew/usbsai/hal/dma"
	"github.com/ardnew/usbsai/pkg"
)

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag.
const wavFormatPCM = 1

// HAL implements hal.Transmitter by encoding chunks into a WAV file.
type HAL struct {
	*dma.Engine

	path string

	mutex   sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	format  hal.Format
	samples goaudio.IntBuffer
}

// New creates a WAV transmit HAL writing to path.
// Options configure the underlying DMA engine.
func New(path string, opts ...dma.Option) *HAL {
	h := &HAL{path: path}
	h.Engine = dma.New(encoderWriter{h}, opts...)
	return h
}

// Init creates the output file and configures the engine for format.
// Only 16-bit PCM is supported.
func (h *HAL) Init(ctx context.Context, format hal.Format) error {
	if format.BitDepth != 16 {
		return fmt.Errorf("%w: %d-bit output", pkg.ErrUnsupportedFormat, format.BitDepth)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.file != nil {
		return pkg.ErrAlreadyRunning
	}

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := h.Engine.Init(ctx, format); err != nil {
		f.Close()
		return err
	}

	h.file = f
	h.format = format
	h.encoder = wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM)
	h.samples = goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		SourceBitDepth: format.BitDepth,
	}

	pkg.LogInfo(pkg.ComponentHAL, "wav transmit HAL initialized", "path", h.path)
	return nil
}

// Stop halts the engine and finalizes the WAV file.
func (h *HAL) Stop() error {
	if err := h.Engine.Stop(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.file == nil {
		return nil
	}

	var err error
	if h.encoder != nil {
		err = h.encoder.Close()
	}
	if cerr := h.file.Close(); err == nil {
		err = cerr
	}
	h.file = nil
	h.encoder = nil

	pkg.LogInfo(pkg.ComponentHAL, "wav transmit HAL stopped",
		"path", h.path,
		"bytes", h.Transmitted())
	return err
}

// Path returns the output file path.
func (h *HAL) Path() string {
	return h.path
}

// encoderWriter is the engine sink feeding the WAV encoder.
type encoderWriter struct {
	h *HAL
}

// Write converts little-endian 16-bit samples and encodes them.
// A trailing odd byte is ignored.
func (w encoderWriter) Write(p []byte) (int, error) {
	w.h.mutex.Lock()
	defer w.h.mutex.Unlock()

	if w.h.encoder == nil {
		return 0, pkg.ErrNotConfigured
	}

	n := len(p) / 2
	data := w.h.samples.Data[:0]
	for i := 0; i < n; i++ {
		data = append(data, int(int16(binary.LittleEndian.Uint16(p[2*i:]))))
	}
	w.h.samples.Data = data

	if err := w.h.encoder.Write(&w.h.samples); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ hal.Transmitter = (*HAL)(nil)
