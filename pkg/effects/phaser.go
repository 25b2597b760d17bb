// ABOUTME: Phaser
// ABOUTME: LFO-swept allpass stages mixed with the dry signal
package effects

import "math"

const (
	phaserStages   = 4
	phaserCentreHz = 1300.0
	phaserMinHz    = 100.0
	phaserMix      = 0.5
	phaserFeedback = 0.3
)

// phaser runs each channel through a cascade of first-order allpass
// filters whose corner frequency follows a sine LFO
type phaser struct {
	left, right [phaserStages]allpassStage
	lastL       float32
	lastR       float32
	rate        float64
	phase       float64
	depth       float64
	sampleRate  float64
}

type allpassStage struct {
	x1, y1 float32
}

func (s *allpassStage) process(in, a float32) float32 {
	out := -a*in + s.x1 + a*s.y1
	s.x1 = in
	s.y1 = out
	return out
}

func (p Phaser) newProcessor(sampleRate int) processor {
	return &phaser{
		rate:       2.0 * math.Pi * p.RateHz / float64(sampleRate),
		depth:      p.Depth,
		sampleRate: float64(sampleRate),
	}
}

func (p *phaser) Process(l, r float32) (float32, float32) {
	// Sweep between phaserMinHz and the centre, scaled by depth
	sweep := (math.Sin(p.phase) + 1) * 0.5 * p.depth
	freq := phaserMinHz + (phaserCentreHz-phaserMinHz)*sweep
	p.phase += p.rate
	if p.phase > 2*math.Pi {
		p.phase -= 2 * math.Pi
	}

	t := math.Tan(math.Pi * freq / p.sampleRate)
	a := float32((1 - t) / (1 + t))

	wetL := l + p.lastL*phaserFeedback
	wetR := r + p.lastR*phaserFeedback
	for i := 0; i < phaserStages; i++ {
		wetL = p.left[i].process(wetL, a)
		wetR = p.right[i].process(wetR, a)
	}
	p.lastL = wetL
	p.lastR = wetR

	return l*(1-phaserMix) + wetL*phaserMix, r*(1-phaserMix) + wetR*phaserMix
}
