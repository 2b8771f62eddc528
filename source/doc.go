// Package source simulates the USB host side of an audio stream.
//
// [OpenWAV] opens a PCM16 stereo 44.1 kHz WAV file and exposes its raw
// sample data. Other formats are rejected; nothing is decoded or resampled.
//
// [Host] reads that data and delivers it in isochronous frames the size a
// full-speed host sends once per millisecond: 44.1 frames per millisecond
// rounds to nine frames of 176 bytes followed by one of 180. A clock skew in
// parts per million shifts the delivered rate to exercise the elasticity
// buffer and the feedback loop.
package source
