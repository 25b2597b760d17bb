// ABOUTME: Audio type definitions
// ABOUTME: Defines decoded sample buffers and sample conversions
package audio

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes the layout of decoded audio
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer holds decoded PCM audio as interleaved float32 frames.
// A Buffer is never modified after construction; replacing audio means
// building a new Buffer.
type Buffer struct {
	Samples    []float32 // interleaved, nominally [-1, 1]
	SampleRate int
	Channels   int
}

// NewBuffer wraps interleaved samples. Trailing samples that do not fill
// a whole frame are dropped.
func NewBuffer(samples []float32, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	whole := len(samples) - len(samples)%channels
	return &Buffer{
		Samples:    samples[:whole],
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Silence returns a zeroed buffer of the given size
func Silence(frames, sampleRate, channels int) *Buffer {
	return &Buffer{
		Samples:    make([]float32, frames*channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Frames returns the number of frames in the buffer
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Empty reports whether the buffer holds no frames
func (b *Buffer) Empty() bool {
	return b.Frames() == 0
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.Empty() || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Format returns the buffer's layout
func (b *Buffer) Format() Format {
	return Format{SampleRate: b.SampleRate, Channels: b.Channels}
}

// Frame returns the samples of frame i (shares memory with the buffer)
func (b *Buffer) Frame(i int) []float32 {
	return b.Samples[i*b.Channels : (i+1)*b.Channels]
}

// Peak returns the largest absolute sample value
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// SampleFromInt16 converts a 16-bit sample to float
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768.0
}

// SampleFromInt converts a signed integer sample of the given bit depth to float
func SampleFromInt(sample int, bitDepth int) float32 {
	return float32(float64(sample) / float64(int64(1)<<(bitDepth-1)))
}

// SampleToInt converts a float sample to a signed integer of the given bit depth,
// clipping to the representable range
func SampleToInt(sample float32, bitDepth int) int {
	max := int64(1)<<(bitDepth-1) - 1
	min := -int64(1) << (bitDepth - 1)
	scaled := int64(float64(sample) * float64(max+1))
	if scaled > max {
		scaled = max
	} else if scaled < min {
		scaled = min
	}
	return int(scaled)
}
