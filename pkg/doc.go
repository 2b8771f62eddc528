// Package pkg provides shared utilities for the usbsai audio bridge.
//
// This package contains common functionality used by the ring buffer, the
// stream orchestrator, the class adapter and the transmit HALs, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for buffer and transmit conditions
//   - Class-layer result codes ([Status])
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentStream, "stream started", "capacity", 4096)
//
// # Errors
//
// Buffer conditions are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrOverflow) {
//	    // drop the USB frame
//	}
package pkg
