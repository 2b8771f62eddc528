// Package hal defines the Hardware Abstraction Layer for the serial-audio
// transmit path.
//
// The HAL sits between the stream orchestrator and the peripheral that
// clocks PCM samples out (an SAI or I2S block fed by DMA on real hardware).
// The orchestrator hands it fixed-size chunks and the HAL reports drain
// progress back through two events per chunk.
//
// # Interface Overview
//
// The [Transmitter] interface defines the contract:
//
//   - Lifecycle: Init, Start, Stop
//   - Data: Ready reports whether another chunk can be queued without
//     blocking, Transmit queues one chunk
//   - Events: SetEventHandler registers the callback that receives
//     [EventHalf] and [EventFull] for every transmitted chunk
//
// # Ownership
//
// Transmit is fire-and-forget. The chunk slice belongs to the HAL until the
// matching [EventFull] fires and cannot be revoked. A hardware failure is
// reported by the Transmit call that observes it.
//
// # Implementations
//
//   - [github.com/ardnew/usbsai/hal/dma]: paced engine over any io.Writer
//   - [github.com/ardnew/usbsai/hal/fifo]: named pipe output
//   - [github.com/ardnew/usbsai/hal/wavout]: WAV file output
//   - [github.com/ardnew/usbsai/hal/speaker]: sound card output via oto
package hal
