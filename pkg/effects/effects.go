// ABOUTME: Effect variant over the closed set of supported effect kinds
// ABOUTME: Parameter catalogue, clamping and lookup by name
package effects

import (
	"math"
	"strings"
)

// Kind identifies an effect type
type Kind int

const (
	KindNone Kind = iota
	KindReverb
	KindDelay
	KindChorus
	KindPhaser
)

var kindNames = [...]string{"None", "Reverb", "Delay", "Chorus", "Phaser"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "None"
	}
	return kindNames[k]
}

// ParseKind looks up a kind by name, case-insensitively. Unknown names are KindNone.
func ParseKind(name string) Kind {
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(i)
		}
	}
	return KindNone
}

// Effect is one configured effect. Implementations are comparable values,
// so two effects with equal parameters compare equal with ==.
type Effect interface {
	Kind() Kind
	// Params returns the parameter values keyed by catalogue name
	Params() map[string]float64
	newProcessor(sampleRate int) processor
}

// ParamSpec describes one effect parameter
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// clamp bounds v to [Min, Max]. NaN takes the default.
func (p ParamSpec) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return p.Default
	}
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}

// Spec lists an effect kind and its parameters
type Spec struct {
	Kind   Kind
	Params []ParamSpec
}

var catalogue = []Spec{
	{Kind: KindNone},
	{Kind: KindReverb, Params: []ParamSpec{
		{Name: "room_size", Min: 0, Max: 1, Default: 0.5},
		{Name: "damping", Min: 0, Max: 1, Default: 0.5},
		{Name: "wet_level", Min: 0, Max: 1, Default: 0.33},
		{Name: "dry_level", Min: 0, Max: 1, Default: 0.4},
		{Name: "width", Min: 0, Max: 1, Default: 1},
	}},
	{Kind: KindDelay, Params: []ParamSpec{
		{Name: "delay_seconds", Min: 0.001, Max: 2, Default: 0.5},
		{Name: "feedback", Min: 0, Max: 0.95, Default: 0.3},
		{Name: "mix", Min: 0, Max: 1, Default: 0.5},
	}},
	{Kind: KindChorus, Params: []ParamSpec{
		{Name: "rate_hz", Min: 0.1, Max: 5, Default: 1.5},
		{Name: "depth", Min: 0, Max: 1, Default: 0.5},
	}},
	{Kind: KindPhaser, Params: []ParamSpec{
		{Name: "rate_hz", Min: 0.1, Max: 5, Default: 0.5},
		{Name: "depth", Min: 0, Max: 1, Default: 0.5},
	}},
}

// Catalogue returns every supported effect with its parameter ranges
func Catalogue() []Spec {
	out := make([]Spec, len(catalogue))
	for i, s := range catalogue {
		out[i] = Spec{Kind: s.Kind, Params: append([]ParamSpec(nil), s.Params...)}
	}
	return out
}

// ParamSpecs returns the parameter ranges for one kind
func ParamSpecs(k Kind) []ParamSpec {
	for _, s := range catalogue {
		if s.Kind == k {
			return append([]ParamSpec(nil), s.Params...)
		}
	}
	return nil
}

// resolve fills missing values with defaults and clamps the rest
func resolve(k Kind, params map[string]float64) []float64 {
	specs := ParamSpecs(k)
	vals := make([]float64, len(specs))
	for i, p := range specs {
		v, ok := params[p.Name]
		if !ok {
			v = p.Default
		}
		vals[i] = p.clamp(v)
	}
	return vals
}

// FromParams builds an effect from a kind name and parameter map. Unknown
// names give None, missing parameters take their defaults and out-of-range
// values are clamped.
func FromParams(name string, params map[string]float64) Effect {
	k := ParseKind(name)
	v := resolve(k, params)
	switch k {
	case KindReverb:
		return Reverb{RoomSize: v[0], Damping: v[1], WetLevel: v[2], DryLevel: v[3], Width: v[4]}
	case KindDelay:
		return Delay{Seconds: v[0], Feedback: v[1], Mix: v[2]}
	case KindChorus:
		return Chorus{RateHz: v[0], Depth: v[1]}
	case KindPhaser:
		return Phaser{RateHz: v[0], Depth: v[1]}
	default:
		return None{}
	}
}

// Default returns the effect of kind k with every parameter at its default
func Default(k Kind) Effect {
	return FromParams(k.String(), nil)
}

// Normalize clamps an effect's parameters into range. nil becomes None.
func Normalize(e Effect) Effect {
	if e == nil {
		return None{}
	}
	return FromParams(e.Kind().String(), e.Params())
}

// None passes audio through untouched
type None struct{}

func (None) Kind() Kind                 { return KindNone }
func (None) Params() map[string]float64 { return map[string]float64{} }

func (None) newProcessor(int) processor { return nil }

// Reverb is a Schroeder room reverb
type Reverb struct {
	RoomSize float64
	Damping  float64
	WetLevel float64
	DryLevel float64
	Width    float64
}

func (Reverb) Kind() Kind { return KindReverb }

func (r Reverb) Params() map[string]float64 {
	return map[string]float64{
		"room_size": r.RoomSize,
		"damping":   r.Damping,
		"wet_level": r.WetLevel,
		"dry_level": r.DryLevel,
		"width":     r.Width,
	}
}

// Delay is a feedback echo
type Delay struct {
	Seconds  float64
	Feedback float64
	Mix      float64
}

func (Delay) Kind() Kind { return KindDelay }

func (d Delay) Params() map[string]float64 {
	return map[string]float64{
		"delay_seconds": d.Seconds,
		"feedback":      d.Feedback,
		"mix":           d.Mix,
	}
}

// Chorus is a modulated short delay
type Chorus struct {
	RateHz float64
	Depth  float64
}

func (Chorus) Kind() Kind { return KindChorus }

func (c Chorus) Params() map[string]float64 {
	return map[string]float64{"rate_hz": c.RateHz, "depth": c.Depth}
}

// Phaser sweeps a cascade of allpass filters
type Phaser struct {
	RateHz float64
	Depth  float64
}

func (Phaser) Kind() Kind { return KindPhaser }

func (p Phaser) Params() map[string]float64 {
	return map[string]float64{"rate_hz": p.RateHz, "depth": p.Depth}
}
