// ABOUTME: Offline mixdown and export of all loaded tracks
// ABOUTME: Sums processed buffers at their volumes, pads, peak-normalizes and writes
package mix

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/stemdeck/stemdeck-go/internal/jobs"
	"github.com/stemdeck/stemdeck-go/pkg/audio"
	"github.com/stemdeck/stemdeck-go/pkg/audio/encode"
	"github.com/stemdeck/stemdeck-go/pkg/track"
)

// ErrNoTracks is returned when no track has audio to mix
var ErrNoTracks = errors.New("no tracks loaded")

// ExportError reports a failed export
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export failed: %v", e.Err)
	}
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Contribution is one track's input to a mixdown
type Contribution struct {
	Index  int
	Name   string
	Buffer *audio.Buffer
	Volume float64
}

// Snapshot captures every loaded track's processed buffer and volume.
// Mute and solo are not consulted; they only affect live monitoring.
func Snapshot(tracks []*track.Track) []Contribution {
	var out []Contribution
	for _, t := range tracks {
		buf := t.Processed()
		if buf.Empty() {
			continue
		}
		out = append(out, Contribution{
			Index:  t.Index(),
			Name:   t.Name(),
			Buffer: buf,
			Volume: t.Volume(),
		})
	}
	return out
}

// MixContributions sums contributions into one buffer with the given channel
// count. Shorter inputs are zero-padded at the tail. If the peak exceeds 1.0
// the whole mix is divided by it. The mix takes the first contribution's
// sample rate; other rates are mixed as-is.
func MixContributions(contribs []Contribution, channels int) (*audio.Buffer, error) {
	if len(contribs) == 0 {
		return nil, ErrNoTracks
	}

	sampleRate := contribs[0].Buffer.SampleRate
	var mixed []float32
	var block []float32

	for _, c := range contribs {
		buf := c.Buffer
		if buf.SampleRate != sampleRate {
			log.Printf("Mixdown: track %d is %dHz, mix is %dHz; mixing without resampling",
				c.Index, buf.SampleRate, sampleRate)
		}

		n := buf.Frames() * channels
		if n > len(mixed) {
			mixed = append(mixed, make([]float32, n-len(mixed))...)
		}
		if cap(block) < n {
			block = make([]float32, n)
		}
		block = block[:n]

		audio.ScaleFrames(block, channels, buf.Samples, buf.Channels, float32(c.Volume))
		for i, v := range block {
			mixed[i] += v
		}
	}

	out := &audio.Buffer{Samples: mixed, SampleRate: sampleRate, Channels: channels}
	if peak := out.Peak(); peak > 1 {
		for i := range mixed {
			mixed[i] /= peak
		}
	}
	return out, nil
}

// Mixdown mixes every loaded track
func Mixdown(tracks []*track.Track, channels int) (*audio.Buffer, error) {
	return MixContributions(Snapshot(tracks), channels)
}

// Export mixes every loaded track and writes the result to path. Nothing is
// written unless the whole mix was assembled. Failures are *ExportError.
func Export(path string, tracks []*track.Track, channels int, enc encode.Encoder) error {
	return exportContributions(path, Snapshot(tracks), channels, enc)
}

func exportContributions(path string, contribs []Contribution, channels int, enc encode.Encoder) error {
	mixed, err := MixContributions(contribs, channels)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	if err := encode.File(path, mixed, enc); err != nil {
		return &ExportError{Path: path, Err: err}
	}

	log.Printf("Exported %d tracks to %s (%v, %dHz, %dch)",
		len(contribs), path, mixed.Duration(), mixed.SampleRate, mixed.Channels)
	return nil
}

// Exporter runs exports of a bus in the background
type Exporter struct {
	bus    *Bus
	runner *jobs.Runner
	enc    encode.Encoder
}

// NewExporter creates an exporter for bus
func NewExporter(bus *Bus, runner *jobs.Runner, enc encode.Encoder) *Exporter {
	return &Exporter{bus: bus, runner: runner, enc: enc}
}

// Submit snapshots the bus now and mixes and writes it in the background.
// The handle's value is the output path.
func (e *Exporter) Submit(path string, onDone func(*jobs.Handle)) *jobs.Handle {
	contribs := Snapshot(e.bus.Tracks())
	channels := e.bus.Channels()

	return e.runner.Submit("export", func(ctx context.Context, progress func(string)) (any, error) {
		progress(fmt.Sprintf("Mixing %d tracks", len(contribs)))
		if err := exportContributions(path, contribs, channels, e.enc); err != nil {
			return nil, err
		}
		progress("Export complete")
		return path, nil
	}, onDone)
}
