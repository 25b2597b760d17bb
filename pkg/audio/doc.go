// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Buffer and Format types and sample conversion functions
// Package audio provides the sample buffer type shared by every stemdeck component.
//
// This package defines core types used throughout the workstation:
//   - Buffer: decoded PCM audio as interleaved float32 frames plus its sample rate
//   - Format: sample rate and channel count
//
// Buffers are treated as immutable. Effects, loads and mixdowns build new
// buffers rather than editing one that an audio callback may be reading.
//
// Example:
//
//	buf, err := audio.NewBuffer(samples, 44100, 2)
//	fmt.Println(buf.Frames(), buf.Duration())
//
//	// Convert a 24-bit integer sample to float
//	f := audio.SampleFromInt(s, 24)
package audio
