// Package dma emulates a double-buffered serial-audio DMA channel.
//
// An [Engine] accepts chunks through [Engine.Transmit], writes each one to
// an io.Writer sink in two halves and fires [hal.EventHalf] and
// [hal.EventFull] as the halves complete. When pacing is enabled the halves
// are released at the PCM byte rate of the configured format, so the engine
// behaves like a peripheral clocked independently of its producer.
//
// The chunk queue is bounded ([WithDepth]); [Engine.Ready] reports whether
// a slot is free. A sink error is latched and returned by the next
// Transmit, the way a peripheral reports a failed transfer.
//
// Engine implements [hal.Transmitter] and is the building block of the
// fifo and wavout HALs.
package dma
