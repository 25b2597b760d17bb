// ABOUTME: Stem separation package
// ABOUTME: Wraps the demucs and spleeter command line tools
// Package stems splits a song into vocals, drums, bass and other.
//
// Separation is delegated to an external tool. The source is first copied
// into the cache, or converted to WAV with ffmpeg when the tools cannot read
// it, and the four stem files the tool writes are returned in slot order.
// Any failure, including a missing output file, is a *SeparationError.
//
// Example:
//
//	sep, _ := stems.New(stems.Config{})
//	paths, err := sep.Separate(ctx, "song.flac", stems.MethodDemucs)
package stems
