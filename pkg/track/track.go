// ABOUTME: Track transport: per-track playback cursor, gain and effect state
// ABOUTME: Control-plane methods lock; the audio callback only reads atomics
package track

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stemdeck/stemdeck-go/pkg/audio"
	"github.com/stemdeck/stemdeck-go/pkg/audio/output"
	"github.com/stemdeck/stemdeck-go/pkg/effects"
)

// SoloGroup reports whether any track sharing the output is soloed
type SoloGroup interface {
	AnySoloed() bool
}

// Config holds track configuration
type Config struct {
	// Output format the track renders into
	SampleRate int
	Channels   int

	// Group is consulted on every callback for the solo policy; nil means
	// the track only honours its own mute flag
	Group SoloGroup

	// OnStateChange is called after transport changes, outside any lock
	OnStateChange func(Status)
}

// Status is a point-in-time view of a track for display
type Status struct {
	Index      int
	Name       string
	Loaded     bool
	Playing    bool
	Position   int
	Frames     int
	SampleRate int
	Volume     float64
	Muted      bool
	Soloed     bool
	Effect     effects.Effect
}

// rendition is one processed buffer together with the effect that made it.
// Replaced as a whole, never modified.
type rendition struct {
	buf    *audio.Buffer
	effect effects.Effect
}

// Track owns one slot's audio and its transport
type Track struct {
	index  int
	config Config
	out    output.Output

	// Control plane; the callback never takes mu
	mu       sync.Mutex
	name     string
	original *audio.Buffer
	effect   effects.Effect
	sess     *session

	// Shared with the callback
	current  atomic.Pointer[rendition]
	active   atomic.Pointer[session]
	position atomic.Int64
	volume   atomic.Uint64
	muted    atomic.Bool
	soloed   atomic.Bool
}

// New creates an empty track that plays through out
func New(index int, out output.Output, config Config) *Track {
	if config.SampleRate == 0 {
		config.SampleRate = 44100
	}
	if config.Channels == 0 {
		config.Channels = 2
	}

	t := &Track{
		index:  index,
		config: config,
		out:    out,
		effect: effects.None{},
	}
	t.volume.Store(math.Float64bits(1.0))
	return t
}

// Index returns the track's slot number
func (t *Track) Index() int {
	return t.index
}

// Name returns the display name of the loaded audio
func (t *Track) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Load replaces the track's audio. Playback stops, the position resets and
// the current effect is rendered over the new buffer before it is published.
func (t *Track) Load(buf *audio.Buffer, name string) error {
	if buf.Empty() {
		return errors.New("cannot load empty buffer")
	}
	if buf.SampleRate != t.config.SampleRate {
		log.Printf("Track %d: %s is %dHz, output is %dHz; playing without resampling",
			t.index, name, buf.SampleRate, t.config.SampleRate)
	}

	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.halt()
	processed := effects.Apply(t.effect, buf)
	t.original = buf
	t.name = name
	t.current.Store(&rendition{buf: processed, effect: t.effect})
	t.position.Store(0)

	log.Printf("Track %d: loaded %s (%d frames, %dHz, %dch)",
		t.index, name, buf.Frames(), buf.SampleRate, buf.Channels)
	return nil
}

// Unload stops playback and drops the track's audio
func (t *Track) Unload() {
	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.halt()
	t.original = nil
	t.name = ""
	t.current.Store(nil)
	t.position.Store(0)
}

// IsLoaded reports whether the track has audio
func (t *Track) IsLoaded() bool {
	r := t.current.Load()
	return r != nil && !r.buf.Empty()
}

// IsPlaying reports whether the track's stream is running
func (t *Track) IsPlaying() bool {
	return t.active.Load() != nil
}

// Processed returns the buffer the callback reads, or nil
func (t *Track) Processed() *audio.Buffer {
	if r := t.current.Load(); r != nil {
		return r.buf
	}
	return nil
}

// Original returns the unprocessed buffer, or nil
func (t *Track) Original() *audio.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.original
}

// Frames returns the length of the processed buffer
func (t *Track) Frames() int {
	return t.Processed().Frames()
}

// Play starts playback from the current position, rewinding first if the
// position is at the end. Without audio it does nothing.
func (t *Track) Play() error {
	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sess != nil && t.active.Load() == t.sess {
		return nil
	}
	return t.start()
}

// PlayFrom moves to frame and plays, restarting the stream if it is running
func (t *Track) PlayFrom(frame int) error {
	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.current.Load()
	if r == nil || r.buf.Empty() {
		return nil
	}
	t.halt()
	t.position.Store(int64(clampFrame(frame, r.buf.Frames())))
	return t.start()
}

// Pause stops playback and keeps the position
func (t *Track) Pause() {
	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt()
}

// Stop stops playback and rewinds to the start
func (t *Track) Stop() {
	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt()
	if t.current.Load() != nil {
		t.position.Store(0)
	}
}

// Toggle pauses a playing track and plays a stopped one
func (t *Track) Toggle() error {
	if t.IsPlaying() {
		t.Pause()
		return nil
	}
	return t.Play()
}

// Seek moves the cursor to frame, clamped to [0, frames-1]. A playing track
// is stopped and restarted at the new position.
func (t *Track) Seek(frame int) {
	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.current.Load()
	if r == nil || r.buf.Empty() {
		return
	}
	frame = clampFrame(frame, r.buf.Frames())

	if t.sess != nil && t.active.Load() == t.sess {
		t.halt()
		t.position.Store(int64(frame))
		if err := t.start(); err != nil {
			log.Printf("Track %d: failed to restart after seek: %v", t.index, err)
		}
		return
	}
	t.position.Store(int64(frame))
}

// SeekSeconds seeks to a time offset in the track's own sample rate
func (t *Track) SeekSeconds(seconds float64) {
	r := t.current.Load()
	if r == nil {
		return
	}
	t.Seek(int(seconds * float64(r.buf.SampleRate)))
}

// Position returns the cursor in frames
func (t *Track) Position() int {
	return int(t.position.Load())
}

// PositionSeconds returns the cursor as a time offset
func (t *Track) PositionSeconds() float64 {
	r := t.current.Load()
	if r == nil || r.buf.SampleRate == 0 {
		return 0
	}
	return float64(t.position.Load()) / float64(r.buf.SampleRate)
}

// Duration returns the length of the processed audio
func (t *Track) Duration() time.Duration {
	return t.Processed().Duration()
}

// SetVolume sets the linear gain, clamped to [0, 1]. Takes effect on the next callback.
func (t *Track) SetVolume(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	t.volume.Store(math.Float64bits(v))
	t.notify()
}

// Volume returns the linear gain
func (t *Track) Volume() float64 {
	return math.Float64frombits(t.volume.Load())
}

// SetMuted sets mute state
func (t *Track) SetMuted(muted bool) {
	t.muted.Store(muted)
	t.notify()
}

// IsMuted returns mute state
func (t *Track) IsMuted() bool {
	return t.muted.Load()
}

// SetSoloed sets solo state
func (t *Track) SetSoloed(soloed bool) {
	t.soloed.Store(soloed)
	t.notify()
}

// IsSoloed returns solo state
func (t *Track) IsSoloed() bool {
	return t.soloed.Load()
}

// Audible applies the mute/solo policy: with any track soloed only soloed
// tracks sound, otherwise every unmuted track does
func (t *Track) Audible() bool {
	if g := t.config.Group; g != nil && g.AnySoloed() {
		return t.soloed.Load()
	}
	return !t.muted.Load()
}

// SetEffect selects the track's effect. The processed buffer is rendered on
// the calling goroutine and published in one pointer swap. Selecting the
// effect already in use does nothing.
func (t *Track) SetEffect(e effects.Effect) {
	e = effects.Normalize(e)

	defer t.notify()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.effect == e {
		return
	}
	t.effect = e
	if t.original == nil {
		return
	}

	processed := effects.Apply(e, t.original)
	t.current.Store(&rendition{buf: processed, effect: e})
	log.Printf("Track %d: effect set to %s", t.index, e.Kind())
}

// Effect returns the selected effect
func (t *Track) Effect() effects.Effect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.effect
}

// Status returns a snapshot for display
func (t *Track) Status() Status {
	t.mu.Lock()
	name := t.name
	effect := t.effect
	t.mu.Unlock()

	s := Status{
		Index:    t.index,
		Name:     name,
		Playing:  t.IsPlaying(),
		Position: t.Position(),
		Volume:   t.Volume(),
		Muted:    t.IsMuted(),
		Soloed:   t.IsSoloed(),
		Effect:   effect,
	}
	if r := t.current.Load(); r != nil {
		s.Loaded = !r.buf.Empty()
		s.Frames = r.buf.Frames()
		s.SampleRate = r.buf.SampleRate
		s.Effect = r.effect
	}
	return s
}

func (t *Track) notify() {
	if t.config.OnStateChange != nil {
		t.config.OnStateChange(t.Status())
	}
}

// start opens a stream at the current position. Callers hold mu.
func (t *Track) start() error {
	r := t.current.Load()
	if r == nil || r.buf.Empty() {
		return nil
	}
	if t.position.Load() >= int64(r.buf.Frames()) {
		t.position.Store(0)
	}
	// A session that ended on its own may not have been reaped yet
	t.halt()

	s := newSession(t)
	stream, err := t.out.NewStream(s)
	if err != nil {
		return fmt.Errorf("track %d: %w", t.index, err)
	}
	s.stream = stream
	t.sess = s
	t.active.Store(s)
	stream.Play()

	go t.watch(s)
	return nil
}

// halt closes the running stream, if any. Callers hold mu.
func (t *Track) halt() {
	s := t.sess
	if s == nil {
		return
	}
	t.sess = nil
	t.active.CompareAndSwap(s, nil)
	s.shutdown()
}

// watch releases the stream once the callback reaches the end of the audio
func (t *Track) watch(s *session) {
	select {
	case <-s.ended:
	case <-s.closed:
		return
	}

	t.mu.Lock()
	if t.sess == s {
		t.sess = nil
	}
	t.mu.Unlock()

	s.shutdown()
	t.notify()
}

func clampFrame(frame, frames int) int {
	if frame >= frames {
		frame = frames - 1
	}
	if frame < 0 {
		frame = 0
	}
	return frame
}
