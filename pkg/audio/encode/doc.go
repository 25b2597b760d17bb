// ABOUTME: Audio encoder package for writing buffers to files
// ABOUTME: Provides Encoder interface and a PCM WAV implementation
// Package encode writes sample buffers to audio files.
//
// Supports: WAV (16-bit and 24-bit integer PCM)
//
// Float samples are clipped to [-1, 1] on the way out. File writes through a
// temporary file so an interrupted export never leaves a partial result.
//
// Example:
//
//	enc, err := encode.NewWAV(16)
//	err = encode.File("mix.wav", buf, enc)
package encode
