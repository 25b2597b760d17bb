// ABOUTME: Track package providing the per-track transport
// ABOUTME: Play, pause, seek, gain and effect state for one slot
// Package track implements one workstation slot: its loaded audio, the
// processed rendition the audio thread reads, and the transport.
//
// Control-plane calls (Load, Play, Seek, SetEffect, ...) serialise on a
// per-track mutex. The audio callback never locks: it reads the processed
// buffer through an atomic pointer, gain and flags through atomics, and
// advances the cursor with compare-and-swap so a concurrent seek wins.
//
// Example:
//
//	t := track.New(1, bus, track.Config{SampleRate: 44100, Channels: 2, Group: bus})
//	t.Load(buf, "drums.wav")
//	t.SetEffect(effects.Default(effects.KindReverb))
//	t.Play()
package track
