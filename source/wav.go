package source

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/ardnew/usbsai/audio"
	"github.com/ardnew/usbsai/pkg"
)

// WAV is an open WAV file positioned at its PCM data.
type WAV struct {
	file   *os.File
	pcm    io.Reader
	length int64
}

// OpenWAV opens the WAV file at path. The file must hold uncompressed
// 16-bit stereo PCM at [audio.SampleRate].
func OpenWAV(path string) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	w, err := newWAV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func newWAV(f *os.File) (*WAV, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a WAV file", pkg.ErrUnsupportedFormat, f.Name())
	}

	if dec.WavAudioFormat != 1 ||
		int(dec.BitDepth) != audio.BitDepth ||
		int(dec.NumChans) != audio.Channels ||
		int(dec.SampleRate) != audio.SampleRate {
		return nil, fmt.Errorf("%w: %d Hz, %d-bit, %d channel(s), format %d",
			pkg.ErrUnsupportedFormat,
			dec.SampleRate, dec.BitDepth, dec.NumChans, dec.WavAudioFormat)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	length := dec.PCMLen()
	length -= length % audio.FrameSize

	pkg.LogDebug(pkg.ComponentSource, "opened WAV",
		"path", f.Name(),
		"bytes", length)

	return &WAV{
		file:   f,
		pcm:    io.LimitReader(f, length),
		length: length,
	}, nil
}

// Read reads raw little-endian PCM.
func (w *WAV) Read(p []byte) (int, error) {
	return w.pcm.Read(p)
}

// Len returns the PCM data size in bytes.
func (w *WAV) Len() int64 {
	return w.length
}

// Close closes the file.
func (w *WAV) Close() error {
	return w.file.Close()
}
