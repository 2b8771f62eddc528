// Package ring implements the elastic byte buffer that sits between the USB
// receive path and the serial-audio transmit path.
//
// A [Buffer] has a fixed capacity and two cursors. Exactly one producer
// advances the write cursor and exactly one consumer advances the read
// cursor; the two may run concurrently without locks.
//
// # Cursor Publication
//
// Cursors are free-running 64-bit counters stored with [sync/atomic]. The
// storage index of a cursor is its value modulo the capacity, and the
// number of buffered bytes is the difference between the two counters, so
// a full buffer is never confused with an empty one and the entire
// capacity is usable.
//
// The producer copies bytes into storage before it stores the new write
// cursor; the consumer loads the write cursor before it copies bytes out
// and stores the new read cursor only after the copy. Neither side ever
// observes a cursor ahead of the bytes it covers.
//
// # Errors
//
// Writes and reads are all-or-nothing. A write larger than the free space
// fails with [pkg.ErrOverflow] and a read larger than the buffered data
// fails with [pkg.ErrUnderflow]; in both cases the buffer is unchanged.
//
// # Handles
//
// [Buffer.Producer] and [Buffer.Consumer] return narrow views so the owner
// can hand each context only the side it is allowed to touch:
//
//	buf, _ := ring.New(4096)
//	prod, cons := buf.Producer(), buf.Consumer()
//	_ = prod.Write(frame)
//	chunk, err := cons.ReadChunk(512)
package ring
