// ABOUTME: WAV audio decoder
// ABOUTME: Decodes 8/16/24/32-bit PCM WAV files using go-audio
package decode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAV decodes RIFF/WAVE files holding integer PCM
type WAV struct{}

// Decode reads every PCM frame from r
func (WAV) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %w", ErrUnsupportedFormat)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("wav audio format %d: %w", d.WavAudioFormat, ErrUnsupportedFormat)
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find pcm data: %w", err)
	}

	format := d.Format()
	bitDepth := int(d.SampleBitDepth())
	if bitDepth == 0 {
		return nil, fmt.Errorf("unknown wav bit depth: %w", ErrUnsupportedFormat)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(d.PCMLen()) / bytesPerSample
	ib := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	n, err := d.PCMBuffer(ib)
	if err != nil {
		return nil, fmt.Errorf("wav decode failed: %w", err)
	}

	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := ib.Data[i]
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = audio.SampleFromInt(v, bitDepth)
	}

	return audio.NewBuffer(samples, format.SampleRate, format.NumChannels)
}
