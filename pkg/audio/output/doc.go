// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides pull-based Output interface with oto, malgo and headless backends
// Package output provides audio playback interfaces.
//
// Playback is pull-based: a backend asks a Source for the next block of
// interleaved float32 samples from its own audio thread. Backends:
//   - oto: one shared context per process, one player per stream
//   - malgo: miniaudio playback device per stream
//   - headless: real-time ticker that discards the audio
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(44100, 2)
//	stream, err := out.NewStream(src)
//	stream.Play()
package output
