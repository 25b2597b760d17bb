// ABOUTME: Schroeder reverb
// ABOUTME: Parallel damped combs into allpass diffusers
package effects

// reverb is a Schroeder-style reverb: damped comb filters in parallel
// followed by allpass diffusers, with a second comb bank for the right
// channel so width can spread the tail.
type reverb struct {
	left, right reverbBank
	wet1, wet2  float32
	dry         float32
}

type reverbBank struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
}

type combFilter struct {
	buf   []float32
	pos   int
	fb    float32
	damp  float32
	store float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// Right-bank offset in samples at 44.1kHz
const reverbStereoSpread = 23

func (p Reverb) newProcessor(sampleRate int) processor {
	room := float32(p.RoomSize)
	width := float32(p.Width)
	wet := float32(p.WetLevel)

	base := int(float32(sampleRate) * (0.015 + room*0.02))
	if base < 10 {
		base = 10
	}
	spread := reverbStereoSpread * sampleRate / 44100

	fb := clamp(0.7+room*0.28, 0, 0.98)
	damp := clamp(float32(p.Damping)*0.4, 0, 0.4)

	return &reverb{
		left:  newReverbBank(base, fb, damp),
		right: newReverbBank(base+spread, fb, damp),
		wet1:  wet * (width/2 + 0.5),
		wet2:  wet * ((1 - width) / 2),
		dry:   float32(p.DryLevel),
	}
}

func newReverbBank(base int, fb, damp float32) reverbBank {
	var b reverbBank
	// Comb filter delay lengths (prime-ish ratios to avoid resonances)
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range b.combs {
		b.combs[i] = combFilter{
			buf:  make([]float32, combLens[i]),
			fb:   fb,
			damp: damp,
		}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range b.allpass {
		b.allpass[i] = allpassFilter{
			buf: make([]float32, maxInt(apLens[i], 1)),
			fb:  0.5,
		}
	}
	return b
}

func (r *reverb) Process(l, r2 float32) (float32, float32) {
	mono := (l + r2) * 0.5
	outL := r.left.process(mono)
	outR := r.right.process(mono)
	return l*r.dry + outL*r.wet1 + outR*r.wet2,
		r2*r.dry + outR*r.wet1 + outL*r.wet2
}

func (b *reverbBank) process(in float32) float32 {
	var out float32
	for i := range b.combs {
		out += b.combs[i].process(in)
	}
	out *= 0.25
	for i := range b.allpass {
		out = b.allpass[i].process(out)
	}
	return out
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
