// Package wavout implements a transmit HAL that records PCM into a WAV file.
//
// Chunks are clocked out by a [dma.Engine] and encoded with
// github.com/go-audio/wav. The RIFF header is finalized on Stop, so the
// file is only complete after the HAL has been stopped.
//
//	tx := wavout.New("capture.wav", dma.WithPacing(false))
//	tx.Init(ctx, audio.Format)
//	tx.Start()
//	defer tx.Stop()
package wavout
