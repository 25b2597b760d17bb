// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes .opus files to 48kHz float samples using libopusfile
package decode

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

const (
	// Opus always decodes at 48kHz
	opusSampleRate = 48000
	// 120ms at 48kHz, the largest Opus packet
	opusMaxFrame = 5760
	// How far into the file to look for the identification header
	opusHeadScan = 512
)

var opusHeadMagic = []byte("OpusHead")

// Opus decodes Ogg-encapsulated Opus files
type Opus struct{}

// Decode reads every packet from r
func (Opus) Decode(r io.ReadSeeker) (*audio.Buffer, error) {
	channels, err := readOpusChannels(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind opus file: %w", err)
	}

	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}
	defer stream.Close()

	pcm := make([]float32, opusMaxFrame*channels)
	var samples []float32
	for {
		n, err := stream.ReadFloat32(pcm)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}
		samples = append(samples, pcm[:n*channels]...)
	}

	return audio.NewBuffer(samples, opusSampleRate, channels)
}

// readOpusChannels finds the OpusHead packet on the first Ogg page and
// returns its output channel count
func readOpusChannels(r io.Reader) (int, error) {
	head := make([]byte, opusHeadScan)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("failed to read opus header: %w", err)
	}
	return parseOpusChannels(head[:n])
}

func parseOpusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, opusHeadMagic)
	// magic(8) version(1) channels(1)
	if idx < 0 || idx+10 > len(data) {
		return 0, fmt.Errorf("no OpusHead packet: %w", ErrUnsupportedFormat)
	}
	channels := int(data[idx+9])
	if channels < 1 || channels > 2 {
		return 0, fmt.Errorf("opus channel count %d: %w", channels, ErrUnsupportedFormat)
	}
	return channels, nil
}
