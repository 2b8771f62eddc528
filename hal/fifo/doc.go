// Package fifo implements a transmit HAL that writes PCM into a named pipe.
//
// This HAL is intended for testing and simulation. Another process (or
// `aplay -f cd`) reads the pipe the way a codec would read the serial-audio
// data line.
//
// # Architecture
//
// Each instance creates a unique subdirectory under a shared bus directory:
//
//	/tmp/sai-bus/                  # Bus directory
//	└── sai-{uuid}/                # Instance subdirectory
//	    └── tx                     # PCM16 stereo little-endian output
//
// Chunks are clocked out by a [dma.Engine], so events fire at the PCM byte
// rate. A write that cannot complete within the write timeout (no reader
// draining the pipe) is dropped and counted rather than failing the stream.
//
// # Usage
//
//	tx := fifo.New("/tmp/sai-bus")
//	tx.Init(ctx, audio.Format)
//	stream, _ := audio.NewStream(audio.DefaultConfig(), tx, link)
//	tx.Start()
//	fmt.Println("reading from", tx.Path())
package fifo
