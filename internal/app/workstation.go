// ABOUTME: Workstation application orchestration
// ABOUTME: Coordinates tracks, bus, sync, background jobs, separation and export
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	gosync "sync"

	"github.com/stemdeck/stemdeck-go/internal/jobs"
	"github.com/stemdeck/stemdeck-go/pkg/audio"
	"github.com/stemdeck/stemdeck-go/pkg/audio/decode"
	"github.com/stemdeck/stemdeck-go/pkg/audio/encode"
	"github.com/stemdeck/stemdeck-go/pkg/audio/output"
	"github.com/stemdeck/stemdeck-go/pkg/effects"
	"github.com/stemdeck/stemdeck-go/pkg/mix"
	"github.com/stemdeck/stemdeck-go/pkg/stems"
	"github.com/stemdeck/stemdeck-go/pkg/sync"
	"github.com/stemdeck/stemdeck-go/pkg/track"
)

// Splitter produces stem files for a source file
type Splitter interface {
	Run(ctx context.Context, path string, method stems.Method, progress func(string)) ([]string, error)
}

// Config holds workstation configuration
type Config struct {
	SampleRate     int
	Channels       int
	Slots          int
	ExportBitDepth int

	// Splitter runs stem separation; nil disables Split
	Splitter Splitter

	// OnChange is called with a fresh snapshot after any state change
	OnChange func(Snapshot)
}

// Snapshot is the workstation state for display
type Snapshot struct {
	Tracks  []track.Status
	Sync    bool
	Message string
	Busy    int
}

// Workstation represents the main application
type Workstation struct {
	config   Config
	bus      *mix.Bus
	sync     *sync.Controller
	runner   *jobs.Runner
	exporter *mix.Exporter
	encoder  encode.Encoder

	mu      gosync.Mutex
	message string
}

// New creates a workstation with empty slots
func New(config Config) (*Workstation, error) {
	if config.ExportBitDepth == 0 {
		config.ExportBitDepth = 16
	}
	enc, err := encode.NewWAV(config.ExportBitDepth)
	if err != nil {
		return nil, err
	}

	w := &Workstation{
		config:  config,
		encoder: enc,
	}

	w.bus = mix.NewBus(mix.Config{
		SampleRate: config.SampleRate,
		Channels:   config.Channels,
		Slots:      config.Slots,
		OnStateChange: func(track.Status) {
			w.changed()
		},
	})
	w.sync = sync.NewController(w.bus)
	w.runner = jobs.NewRunner(jobs.Config{
		OnProgress: func(h *jobs.Handle, msg string) {
			w.setMessage(msg)
		},
	})
	w.exporter = mix.NewExporter(w.bus, w.runner, enc)

	return w, nil
}

// Start begins playing the mix through device
func (w *Workstation) Start(device output.Output) error {
	return w.bus.Start(device)
}

// Bus returns the mix bus
func (w *Workstation) Bus() *mix.Bus {
	return w.bus
}

// Sync returns the sync controller
func (w *Workstation) Sync() *sync.Controller {
	return w.sync
}

// Import decodes path and loads it into slot (1-based)
func (w *Workstation) Import(slot int, path string) error {
	t := w.bus.Track(slot)
	if t == nil {
		return fmt.Errorf("no track in slot %d", slot)
	}

	buf, err := decode.File(path)
	if err != nil {
		w.setMessage(err.Error())
		return err
	}
	if err := t.Load(buf, filepath.Base(path)); err != nil {
		return err
	}

	w.setMessage(fmt.Sprintf("Loaded %s into track %d", filepath.Base(path), slot))
	return nil
}

// Split separates path in the background and loads the stems into slots
// 1-4, adding slots if needed. Nothing is loaded unless every stem decodes.
// The handle's value is the stem paths.
func (w *Workstation) Split(path string, method stems.Method) (*jobs.Handle, error) {
	if w.config.Splitter == nil {
		return nil, errors.New("stem separation is not configured")
	}

	h := w.runner.Submit("split", func(ctx context.Context, progress func(string)) (any, error) {
		paths, err := w.config.Splitter.Run(ctx, path, method, progress)
		if err != nil {
			return nil, err
		}

		bufs := make([]*audio.Buffer, len(paths))
		for i, p := range paths {
			progress(fmt.Sprintf("Decoding %s", filepath.Base(p)))
			buf, err := decode.File(p)
			if err != nil {
				return nil, &stems.SeparationError{Method: method, Path: path, Err: err}
			}
			bufs[i] = buf
		}

		for len(w.bus.Tracks()) < len(bufs) {
			w.bus.AddTrack()
		}
		for i, buf := range bufs {
			if err := w.bus.Track(i+1).Load(buf, filepath.Base(paths[i])); err != nil {
				return nil, err
			}
		}

		progress(fmt.Sprintf("Loaded %d stems", len(bufs)))
		return paths, nil
	}, w.jobDone)

	return h, nil
}

// Export mixes every loaded track to path in the background. A path
// without an extension gets the encoder's.
func (w *Workstation) Export(path string) *jobs.Handle {
	return w.exporter.Submit(w.exportPath(path), w.jobDone)
}

// Mixdown mixes every loaded track to path and waits for the write
func (w *Workstation) Mixdown(path string) error {
	path = w.exportPath(path)
	if err := mix.Export(path, w.bus.Tracks(), w.bus.Channels(), w.encoder); err != nil {
		return err
	}
	log.Printf("Exported mix to %s", path)
	return nil
}

func (w *Workstation) exportPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + w.encoder.Extension()
	}
	return path
}

// TogglePlay is a track's play button
func (w *Workstation) TogglePlay(slot int) error {
	t := w.bus.Track(slot)
	if t == nil {
		return nil
	}
	return w.sync.TogglePlay(t)
}

// SyncPlay starts every loaded track from the top, or stops them all
func (w *Workstation) SyncPlay() error {
	return w.sync.SyncPlay()
}

// SetSync turns track synchronization on or off
func (w *Workstation) SetSync(enabled bool) {
	w.sync.SetEnabled(enabled)
	w.changed()
}

// Seek moves a track to a time offset, mirrored to the others under sync
func (w *Workstation) Seek(slot int, seconds float64) error {
	t := w.bus.Track(slot)
	if t == nil || !t.IsLoaded() {
		return nil
	}
	if seconds < 0 {
		seconds = 0
	}
	frame := int(seconds * float64(t.Processed().SampleRate))
	return w.sync.Seek(t, frame)
}

// Nudge seeks a track relative to its current position
func (w *Workstation) Nudge(slot int, deltaSeconds float64) error {
	t := w.bus.Track(slot)
	if t == nil {
		return nil
	}
	return w.Seek(slot, t.PositionSeconds()+deltaSeconds)
}

// SetVolume sets a track's gain
func (w *Workstation) SetVolume(slot int, v float64) {
	if t := w.bus.Track(slot); t != nil {
		t.SetVolume(v)
	}
}

// ToggleMute flips a track's mute flag
func (w *Workstation) ToggleMute(slot int) {
	if t := w.bus.Track(slot); t != nil {
		t.SetMuted(!t.IsMuted())
	}
}

// ToggleSolo flips a track's solo flag
func (w *Workstation) ToggleSolo(slot int) {
	if t := w.bus.Track(slot); t != nil {
		t.SetSoloed(!t.IsSoloed())
	}
}

// SetEffect selects a track's effect
func (w *Workstation) SetEffect(slot int, e effects.Effect) {
	if t := w.bus.Track(slot); t != nil {
		t.SetEffect(e)
	}
}

// CycleEffect moves a track to the next effect kind at default settings
func (w *Workstation) CycleEffect(slot int) {
	t := w.bus.Track(slot)
	if t == nil {
		return
	}
	next := (t.Effect().Kind() + 1) % effects.Kind(len(effects.Catalogue()))
	t.SetEffect(effects.Default(next))
}

// Snapshot returns the current state for display
func (w *Workstation) Snapshot() Snapshot {
	tracks := w.bus.Tracks()
	s := Snapshot{
		Tracks:  make([]track.Status, len(tracks)),
		Sync:    w.sync.Enabled(),
		Message: w.Message(),
		Busy:    len(w.runner.Active()),
	}
	for i, t := range tracks {
		s.Tracks[i] = t.Status()
	}
	return s
}

// Message returns the latest status line
func (w *Workstation) Message() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.message
}

func (w *Workstation) setMessage(msg string) {
	w.mu.Lock()
	w.message = msg
	w.mu.Unlock()
	w.changed()
}

func (w *Workstation) jobDone(h *jobs.Handle) {
	if err := h.Err(); err != nil {
		w.setMessage(fmt.Sprintf("%s failed: %v", h.Name, err))
		return
	}
	w.changed()
}

func (w *Workstation) changed() {
	if w.config.OnChange != nil {
		w.config.OnChange(w.Snapshot())
	}
}

// Close waits for background jobs and releases the device
func (w *Workstation) Close() error {
	w.runner.Close()
	return w.bus.Close()
}
