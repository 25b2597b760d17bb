// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 files to stereo float samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

// MP3 decodes MPEG-1/2 Layer III files. go-mp3 always produces
// 16-bit little-endian stereo.
type MP3 struct{}

// Decode reads every frame from r
func (MP3) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(raw) / 2
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}

	return audio.NewBuffer(samples, d.SampleRate(), 2)
}
