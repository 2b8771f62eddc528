// Package audio implements the transfer orchestrator that moves PCM audio
// from the USB receive path to the serial-audio transmit path.
//
// A [Stream] owns one elastic [ring.Buffer]. USB data events write into it
// and transmit completion events drain it in fixed-size chunks:
//
//	USB OUT frame ──► OnUSBAudioReceived ──► ring ──► drain ──► hal.Transmitter
//	                                           ▲                      │
//	                                           └──── OnDMAEvent ◄─────┘
//
// After every transmit event the stream notifies the USB layer of the
// synchronization offset ([OffsetHalf] or [OffsetFull]) through a
// [SyncNotifier], and on request it reports a 3-byte [Feedback] sample.
//
// # States
//
// A stream starts Idle. [Stream.Init] resets the buffer and enters
// Streaming; [Stream.DeInit] returns to Idle. A transmit failure moves the
// stream to Faulted until the next DeInit/Init pair.
//
// # Concurrency
//
// The buffer is lock-free: the USB receive context is its only producer.
// Both event sources may attempt a drain, so draining is guarded by an
// atomic flag; a drain that finds another one in progress returns at once.
// Event handlers never block. They take the lifecycle lock with TryRLock
// and drop the event if a transition is in progress.
//
// # Errors
//
// Overflow is returned synchronously to the USB caller as
// [pkg.ErrOverflow]; the frame is not buffered. Underflow is never an error,
// the drain step just has nothing to do. A failed transmit is retried up to
// [Config.TransmitRetries] times and is then fatal.
package audio
