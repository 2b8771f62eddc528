// Package prof captures pprof profiles of the usb-audio bridge.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./examples/sim-hal/usb-audio
//
// Without the tag every function is a no-op, so callers keep their
// profiling hooks in place at no cost.
//
// A CPU profile covers the interval between [StartCPU] and [StopCPU]. The
// heap, goroutine, block and mutex profiles are snapshots taken with
// [Write]. Block and mutex sampling is off until [EnableContention] is
// called, which is useful for spotting lock pressure between the USB
// receive path and the transmit events.
package prof
