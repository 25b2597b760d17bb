// ABOUTME: WAV audio encoder
// ABOUTME: Encodes float buffers to 16-bit or 24-bit PCM WAV using go-audio
package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

const wavFormatPCM = 1

// WAV encodes integer PCM WAV files
type WAV struct {
	bitDepth int
}

// NewWAV creates a WAV encoder for the given bit depth
func NewWAV(bitDepth int) (*WAV, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", bitDepth)
	}
	return &WAV{bitDepth: bitDepth}, nil
}

// BitDepth returns the encoder's sample width
func (e *WAV) BitDepth() int {
	return e.bitDepth
}

// Extension returns ".wav"
func (e *WAV) Extension() string {
	return ".wav"
}

// Encode writes buf to w, clipping samples outside [-1, 1]
func (e *WAV) Encode(w io.WriteSeeker, buf *audio.Buffer) error {
	if buf.Empty() {
		return fmt.Errorf("cannot encode empty buffer")
	}

	enc := wav.NewEncoder(w, buf.SampleRate, e.bitDepth, buf.Channels, wavFormatPCM)

	ib := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(buf.Samples)),
		SourceBitDepth: e.bitDepth,
	}
	for i, s := range buf.Samples {
		ib.Data[i] = audio.SampleToInt(s, e.bitDepth)
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("wav encode failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}
