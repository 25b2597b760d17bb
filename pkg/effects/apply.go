// ABOUTME: Offline effect rendering over whole buffers
// ABOUTME: Apply builds a new processed buffer from an unprocessed one
package effects

import (
	"github.com/stemdeck/stemdeck-go/pkg/audio"
)

// processor handles one stereo sample pair at a time
type processor interface {
	Process(l, r float32) (float32, float32)
}

// Apply renders e over src and returns the processed buffer. src is never
// modified. Every call starts from fresh filter state, so equal inputs give
// identical output. None returns src itself.
func Apply(e Effect, src *audio.Buffer) *audio.Buffer {
	e = Normalize(e)
	if e.Kind() == KindNone || src.Empty() {
		return src
	}

	ch := src.Channels
	frames := src.Frames()
	out := make([]float32, len(src.Samples))

	// Channels are processed in pairs; an odd last channel runs as mono
	for c := 0; c < ch; c += 2 {
		p := e.newProcessor(src.SampleRate)
		if c+1 < ch {
			for f := 0; f < frames; f++ {
				i := f*ch + c
				out[i], out[i+1] = p.Process(src.Samples[i], src.Samples[i+1])
			}
		} else {
			for f := 0; f < frames; f++ {
				i := f*ch + c
				l, r := p.Process(src.Samples[i], src.Samples[i])
				out[i] = (l + r) * 0.5
			}
		}
	}

	return &audio.Buffer{Samples: out, SampleRate: src.SampleRate, Channels: ch}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
