package fifo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ardnew/usbsai/hal"
	"github.com/ardnew/usbsai/hal/dma"
	"github.com/ardnew/usbsai/pkg"
)

// fifoTx is the name of the PCM output pipe.
const fifoTx = "tx"

// DefaultWriteTimeout bounds a single write to the pipe.
const DefaultWriteTimeout = 100 * time.Millisecond

// HAL implements hal.Transmitter over a named pipe.
type HAL struct {
	*dma.Engine

	busDir  string
	dir     string
	uuid    string
	timeout time.Duration

	mutex sync.RWMutex
	file  *os.File

	dropped atomic.Uint64
}

// New creates a FIFO transmit HAL rooted at busDir.
// Options configure the underlying DMA engine.
func New(busDir string, opts ...dma.Option) *HAL {
	h := &HAL{
		busDir:  busDir,
		timeout: DefaultWriteTimeout,
	}
	h.Engine = dma.New(pipeWriter{h}, opts...)
	return h
}

// generateUUID generates a random UUID using crypto/rand.
func generateUUID() (string, error) {
	var uuid [16]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		return "", err
	}
	// Set version 4 (random) bits
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return hex.EncodeToString(uuid[:]), nil
}

// Init creates the instance directory and the output pipe, then configures
// the engine for format.
func (h *HAL) Init(ctx context.Context, format hal.Format) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.file != nil {
		return pkg.ErrAlreadyRunning
	}

	uuid, err := generateUUID()
	if err != nil {
		return fmt.Errorf("generate uuid: %w", err)
	}
	dir := filepath.Join(h.busDir, "sai-"+uuid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create instance dir: %w", err)
	}

	path := filepath.Join(dir, fifoTx)
	os.Remove(path)
	if err := syscall.Mkfifo(path, 0o666); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("mkfifo %s: %w", fifoTx, err)
	}

	// O_RDWR keeps the pipe open without a reader attached.
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("open %s: %w", fifoTx, err)
	}

	if err := h.Engine.Init(ctx, format); err != nil {
		f.Close()
		os.RemoveAll(dir)
		return err
	}

	h.uuid = uuid
	h.dir = dir
	h.file = f

	pkg.LogInfo(pkg.ComponentHAL, "fifo transmit HAL initialized",
		"busDir", h.busDir,
		"path", path)
	return nil
}

// Stop halts the engine, closes the pipe and removes the instance directory.
func (h *HAL) Stop() error {
	err := h.Engine.Stop()

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.file != nil {
		h.file.Close()
		h.file = nil
	}
	if h.dir != "" {
		os.RemoveAll(h.dir)
		h.dir = ""
	}

	pkg.LogInfo(pkg.ComponentHAL, "fifo transmit HAL stopped",
		"dropped", h.dropped.Load())
	return err
}

// Path returns the path of the output pipe, or "" before Init.
func (h *HAL) Path() string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.dir == "" {
		return ""
	}
	return filepath.Join(h.dir, fifoTx)
}

// UUID returns the instance identifier.
func (h *HAL) UUID() string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.uuid
}

// Dropped returns the number of writes dropped because nobody read the pipe.
func (h *HAL) Dropped() uint64 {
	return h.dropped.Load()
}

// pipeWriter is the engine sink writing into the pipe.
type pipeWriter struct {
	h *HAL
}

// Write implements io.Writer for the engine.
func (w pipeWriter) Write(p []byte) (int, error) {
	w.h.mutex.RLock()
	f := w.h.file
	w.h.mutex.RUnlock()

	if f == nil {
		return 0, pkg.ErrNotConfigured
	}

	f.SetWriteDeadline(time.Now().Add(w.h.timeout))
	n, err := f.Write(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		w.h.dropped.Add(1)
		pkg.LogDebug(pkg.ComponentHAL, "pipe full, dropping audio",
			"bytes", len(p)-n)
		return len(p), nil
	}
	return n, err
}

var _ hal.Transmitter = (*HAL)(nil)
