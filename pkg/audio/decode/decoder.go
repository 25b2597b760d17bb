// ABOUTME: Decoder interface definition and file loader
// ABOUTME: Picks a decoder by file extension and reports LoadError on failure
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

// ErrUnsupportedFormat is returned for files no decoder understands
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// LoadError reports a file that could not be imported
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Decoder decodes a complete audio file into a sample buffer
type Decoder interface {
	// Decode reads the whole stream and returns its samples
	Decode(r io.ReadSeeker) (*audio.Buffer, error)
}

var byExtension = map[string]Decoder{
	".wav":  WAV{},
	".wave": WAV{},
	".mp3":  MP3{},
	".flac": FLAC{},
	".opus": Opus{},
	".ogg":  Opus{},
}

// ForPath returns the decoder matching the file's extension
func ForPath(path string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return dec, nil
}

// Supported reports whether path has an extension File can decode
func Supported(path string) bool {
	_, err := ForPath(path)
	return err == nil
}

// File loads and decodes the audio file at path. Every failure is a *LoadError.
func File(path string) (*audio.Buffer, error) {
	dec, err := ForPath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	buf, err := dec.Decode(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if buf.Empty() {
		return nil, &LoadError{Path: path, Err: errors.New("file contains no audio frames")}
	}
	return buf, nil
}
