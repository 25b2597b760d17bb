// ABOUTME: Effect package for offline per-track processing
// ABOUTME: Provides the Effect variant, parameter catalogue and Apply
// Package effects renders a track's effect over its whole buffer.
//
// Effect is a closed variant: None, Reverb, Delay, Chorus, Phaser. Each kind
// carries its own parameter struct. FromParams builds one from a name and a
// loose parameter map, clamping anything out of range.
//
// Apply is a pure function of (effect, buffer): it always returns a new
// buffer and gives identical output for identical input.
//
// Example:
//
//	e := effects.FromParams("Delay", map[string]float64{"delay_seconds": 0.25})
//	processed := effects.Apply(e, original)
package effects
