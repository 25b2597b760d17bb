// ABOUTME: Chorus
// ABOUTME: LFO-modulated short delay mixed with the dry signal
package effects

import "math"

const (
	chorusCentreMs   = 7.0
	chorusMaxDepthMs = 5.0
	chorusMix        = 0.5
)

// chorus is a modulated delay around a fixed centre delay
type chorus struct {
	bufL, bufR []float32
	pos        int
	size       int
	centre     float32
	depth      float32 // modulation depth in samples
	rate       float64 // modulation rate in radians per sample
	phase      float64
	wet        float32
}

func (p Chorus) newProcessor(sampleRate int) processor {
	centre := chorusCentreMs * float64(sampleRate) / 1000.0
	depth := p.Depth * chorusMaxDepthMs * float64(sampleRate) / 1000.0
	size := int(centre+depth) + 2
	if size < 4 {
		size = 4
	}
	return &chorus{
		bufL:   make([]float32, size),
		bufR:   make([]float32, size),
		size:   size,
		centre: float32(centre),
		depth:  float32(depth),
		rate:   2.0 * math.Pi * p.RateHz / float64(sampleRate),
		wet:    chorusMix,
	}
}

func (c *chorus) Process(l, r float32) (float32, float32) {
	mod := float32(math.Sin(c.phase)) * c.depth
	c.phase += c.rate
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}
	c.bufL[c.pos] = l
	c.bufR[c.pos] = r

	// Read with fractional delay; the right channel is modulated in antiphase
	delL := c.tap(c.bufL, c.centre+mod)
	delR := c.tap(c.bufR, c.centre-mod)

	c.pos++
	if c.pos >= c.size {
		c.pos = 0
	}
	return l*(1-c.wet) + delL*c.wet, r*(1-c.wet) + delR*c.wet
}

func (c *chorus) tap(buf []float32, delay float32) float32 {
	readPos := float32(c.pos) - delay
	for readPos < 0 {
		readPos += float32(c.size)
	}
	idx := int(readPos)
	if idx >= c.size {
		idx = 0
	}
	frac := readPos - float32(idx)
	idx2 := idx + 1
	if idx2 >= c.size {
		idx2 = 0
	}
	return buf[idx]*(1-frac) + buf[idx2]*frac
}
