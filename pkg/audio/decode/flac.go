// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC files frame by frame with mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

// FLAC decodes native FLAC streams
type FLAC struct{}

// Decode reads every frame from r
func (FLAC) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	// The caller owns r; the stream is not closed here
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create flac decoder: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels == 0 || bitDepth == 0 {
		return nil, fmt.Errorf("flac stream info incomplete: %w", ErrUnsupportedFormat)
	}

	samples := make([]float32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode failed: %w", err)
		}

		n := frame.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.SampleFromInt(int(frame.Subframes[ch].Samples[i]), bitDepth))
			}
		}
	}

	return audio.NewBuffer(samples, int(info.SampleRate), channels)
}
