// ABOUTME: Feedback delay
// ABOUTME: Stereo echo line mixed with the dry signal
package effects

// delay is a stereo echo line with feedback
type delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	wet        float32
}

func (p Delay) newProcessor(sampleRate int) processor {
	samples := int(p.Seconds * float64(sampleRate))
	if samples < 1 {
		samples = 1
	}
	return &delay{
		bufL:     make([]float32, samples),
		bufR:     make([]float32, samples),
		feedback: clamp(float32(p.Feedback), 0, 0.95),
		wet:      clamp(float32(p.Mix), 0, 1),
	}
}

func (d *delay) Process(l, r float32) (float32, float32) {
	delL := d.bufL[d.pos]
	delR := d.bufR[d.pos]
	d.bufL[d.pos] = l + delL*d.feedback
	d.bufR[d.pos] = r + delR*d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l*(1-d.wet) + delL*d.wet, r*(1-d.wet) + delR*d.wet
}
