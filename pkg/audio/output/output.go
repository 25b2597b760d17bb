// ABOUTME: Audio output interface definition
// ABOUTME: Pull-based sources, streams and the backends that drive them
package output

import (
	"fmt"
)

// Source produces interleaved float32 samples on demand. Read is called from
// the backend's audio thread and must not block.
//
// Read always fills dst completely, zero-padding past the end of the audio.
// n counts the samples that carried audio. io.EOF is returned together with
// the final block and on every call after it.
type Source interface {
	Read(dst []float32) (n int, err error)
}

// Stream is one source attached to an output
type Stream interface {
	// Play starts or resumes pulling from the source
	Play()

	// Pause stops pulling without releasing the stream
	Pause()

	// Close releases the stream. The source is never read after Close returns.
	Close() error
}

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// NewStream attaches a source to the output. The stream starts paused.
	NewStream(src Source) (Stream, error)

	// Close releases output resources
	Close() error
}

// StreamError reports a stream that could not be opened or started
type StreamError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s output: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// New returns the output backend with the given name
func New(backend string) (Output, error) {
	switch backend {
	case "oto", "":
		return NewOto(), nil
	case "malgo":
		return NewMalgo(), nil
	case "headless":
		return NewHeadless(DefaultPeriod), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
}
