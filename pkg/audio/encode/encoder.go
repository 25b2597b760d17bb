// ABOUTME: Encoder interface definition and atomic file writer
// ABOUTME: Writes a finished buffer to disk only after encoding succeeds
package encode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

// Encoder encodes a complete sample buffer to a file format
type Encoder interface {
	// Encode writes buf to w
	Encode(w io.WriteSeeker, buf *audio.Buffer) error

	// Extension returns the file extension this encoder produces, with the dot
	Extension() string
}

// File encodes buf into path. The data goes to a temporary file in the same
// directory which is renamed into place, so a failed write leaves no file.
func File(path string, buf *audio.Buffer, enc Encoder) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stemdeck-*"+enc.Extension())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := enc.Encode(tmp, buf); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
