// Package speaker implements a transmit HAL that plays PCM on the host
// sound card through github.com/ebitengine/oto/v3.
//
// The sound card is the hardware clock: oto pulls bytes from the HAL and
// the HAL fires [hal.EventHalf] and [hal.EventFull] as each chunk is
// consumed. When no chunk is queued the HAL plays silence.
//
// oto allows one context per process, so at most one speaker HAL can be
// initialized at a time.
package speaker
