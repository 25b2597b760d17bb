// ABOUTME: Source preparation ahead of separation
// ABOUTME: WAV and MP3 are cached as-is; other formats are converted with ffmpeg
package stems

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// nativeFormats are handed to the separation tools without conversion
var nativeFormats = map[string]bool{
	".wav": true,
	".mp3": true,
}

// prepare returns a cached copy of path in a format the tools accept
func (s *Separator) prepare(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if nativeFormats[ext] {
		return s.config.Cache.Store(path)
	}

	if cached, ok := s.config.Cache.Lookup(path, ".wav"); ok {
		log.Printf("Cache hit: %s", cached)
		return cached, nil
	}
	return s.convert(ctx, path)
}

// convert writes a WAV rendition of path into the cache using ffmpeg
func (s *Separator) convert(ctx context.Context, path string) (string, error) {
	dst := s.config.Cache.Path(path, ".wav")
	tmp := dst + ".partial.wav"

	log.Printf("Converting %s to WAV", path)
	stderr, err := s.run(ctx, s.config.FFmpegBin,
		"-loglevel", "error",
		"-y",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		tmp)
	if err != nil {
		os.Remove(tmp)
		if stderr != "" {
			err = fmt.Errorf("%w: %s", err, stderr)
		}
		return "", fmt.Errorf("failed to convert to WAV: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to convert to WAV: %w", err)
	}
	return dst, nil
}
