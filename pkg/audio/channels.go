// ABOUTME: Channel layout mapping between buffers
// ABOUTME: Scales and maps frames from one channel count to another
package audio

// ScaleFrames writes frames from src (srcCh channels) into dst (dstCh channels),
// multiplying each sample by gain. dst is overwritten. Returns frames written.
//
// Mapping: equal layouts copy channel for channel, mono fans out to every
// output channel, anything folding down to mono is averaged, and other
// mismatches copy the overlapping channels and silence the rest.
func ScaleFrames(dst []float32, dstCh int, src []float32, srcCh int, gain float32) int {
	frames := len(src) / srcCh
	if max := len(dst) / dstCh; frames > max {
		frames = max
	}

	switch {
	case srcCh == dstCh:
		n := frames * dstCh
		for i := 0; i < n; i++ {
			dst[i] = src[i] * gain
		}
	case srcCh == 1:
		for f := 0; f < frames; f++ {
			v := src[f] * gain
			for c := 0; c < dstCh; c++ {
				dst[f*dstCh+c] = v
			}
		}
	case dstCh == 1:
		for f := 0; f < frames; f++ {
			var sum float32
			for c := 0; c < srcCh; c++ {
				sum += src[f*srcCh+c]
			}
			dst[f] = sum / float32(srcCh) * gain
		}
	default:
		for f := 0; f < frames; f++ {
			for c := 0; c < dstCh; c++ {
				if c < srcCh {
					dst[f*dstCh+c] = src[f*srcCh+c] * gain
				} else {
					dst[f*dstCh+c] = 0
				}
			}
		}
	}
	return frames
}

// Remap returns a copy of buf laid out with the given channel count
func Remap(buf *Buffer, channels int) *Buffer {
	if buf.Channels == channels {
		out := make([]float32, len(buf.Samples))
		copy(out, buf.Samples)
		return &Buffer{Samples: out, SampleRate: buf.SampleRate, Channels: channels}
	}
	out := make([]float32, buf.Frames()*channels)
	ScaleFrames(out, channels, buf.Samples, buf.Channels, 1)
	return &Buffer{Samples: out, SampleRate: buf.SampleRate, Channels: channels}
}
