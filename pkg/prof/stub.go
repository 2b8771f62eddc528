//go:build !profile

package prof

// ErrCPUProfileActive is never returned without the "profile" tag.
var ErrCPUProfileActive error

// Profile names a snapshot profile.
type Profile string

// Snapshot profiles.
const (
	ProfileHeap      Profile = "heap"
	ProfileGoroutine Profile = "goroutine"
	ProfileBlock     Profile = "block"
	ProfileMutex     Profile = "mutex"
)

// StartCPU is a no-op.
func StartCPU(string) error { return nil }

// StopCPU is a no-op.
func StopCPU() {}

// IsCPUActive returns false.
func IsCPUActive() bool { return false }

// Write is a no-op.
func Write(Profile, string) error { return nil }

// EnableContention is a no-op.
func EnableContention() {}
