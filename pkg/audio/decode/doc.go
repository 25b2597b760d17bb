// ABOUTME: Audio file decoder package for multiple codec support
// ABOUTME: Provides Decoder interface and implementations for WAV, MP3, FLAC, Opus
// Package decode imports audio files into sample buffers.
//
// Supports: WAV (integer PCM), MP3, FLAC, Ogg Opus
//
// All decoders implement the Decoder interface and produce an audio.Buffer
// of float32 samples at the file's native rate. No resampling is done.
//
// Example:
//
//	buf, err := decode.File("drums.flac")
//	var loadErr *decode.LoadError
//	if errors.As(err, &loadErr) {
//		log.Printf("import failed: %v", loadErr)
//	}
package decode
