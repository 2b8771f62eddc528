// Package uac adapts an [audio.Stream] to the callback table a USB Audio
// Class device stack invokes on the streaming interface.
//
// Callbacks return a [pkg.Status] result code instead of an error, since
// the device stack only distinguishes success, busy and failure. Feedback
// samples are sent to the isochronous feedback IN endpoint through a
// [Link], which also receives the sync offsets reported by the stream.
//
// # Usage
//
//	class, err := uac.New(audio.DefaultConfig(), tx, link)
//	if err != nil {
//		return err
//	}
//	class.Init(audio.SampleRate, 0, 0)
//
//	// For each isochronous OUT packet:
//	status := class.AudioCmd(packet, uac.AudioCmdPlay)
//
//	// Once per feedback interval:
//	class.FeedbackUpdate()
package uac
