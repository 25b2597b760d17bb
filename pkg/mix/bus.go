// ABOUTME: Mix bus summing every playing track into one output block
// ABOUTME: Acts as the tracks' Output and as the device's Source
package mix

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/stemdeck/stemdeck-go/pkg/audio/output"
	"github.com/stemdeck/stemdeck-go/pkg/track"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultSlots      = 4
)

// Config holds bus configuration
type Config struct {
	SampleRate int
	Channels   int
	Slots      int

	// OnStateChange is passed to every track the bus creates
	OnStateChange func(track.Status)
}

// Bus owns an ordered set of tracks and mixes their streams. Tracks open
// their streams on the bus; a device stream pulls the bus.
type Bus struct {
	config Config

	tracksMu sync.Mutex
	tracks   atomic.Pointer[[]*track.Track]

	// Copy-on-write so Pull never locks
	streamsMu sync.Mutex
	streams   atomic.Pointer[[]*busStream]

	// Only touched by the goroutine calling Pull
	scratch []float32

	deviceMu     sync.Mutex
	device       output.Output
	deviceStream output.Stream
}

// NewBus creates a bus with config.Slots empty tracks
func NewBus(config Config) *Bus {
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Channels == 0 {
		config.Channels = DefaultChannels
	}
	if config.Slots == 0 {
		config.Slots = DefaultSlots
	}

	b := &Bus{config: config}
	empty := []*busStream{}
	b.streams.Store(&empty)

	tracks := make([]*track.Track, 0, config.Slots)
	for i := 1; i <= config.Slots; i++ {
		tracks = append(tracks, b.newTrack(i))
	}
	b.tracks.Store(&tracks)
	return b
}

func (b *Bus) newTrack(index int) *track.Track {
	return track.New(index, b, track.Config{
		SampleRate:    b.config.SampleRate,
		Channels:      b.config.Channels,
		Group:         b,
		OnStateChange: b.config.OnStateChange,
	})
}

// SampleRate returns the bus sample rate
func (b *Bus) SampleRate() int {
	return b.config.SampleRate
}

// Channels returns the bus channel count
func (b *Bus) Channels() int {
	return b.config.Channels
}

// Tracks returns the tracks in slot order
func (b *Bus) Tracks() []*track.Track {
	return append([]*track.Track(nil), *b.tracks.Load()...)
}

// Track returns the track in slot i (1-based), or nil
func (b *Bus) Track(i int) *track.Track {
	tracks := *b.tracks.Load()
	if i < 1 || i > len(tracks) {
		return nil
	}
	return tracks[i-1]
}

// AddTrack appends an empty slot
func (b *Bus) AddTrack() *track.Track {
	b.tracksMu.Lock()
	defer b.tracksMu.Unlock()

	old := *b.tracks.Load()
	t := b.newTrack(len(old) + 1)
	next := make([]*track.Track, len(old), len(old)+1)
	copy(next, old)
	next = append(next, t)
	b.tracks.Store(&next)

	log.Printf("Bus: added track %d", t.Index())
	return t
}

// AnySoloed reports whether any track is soloed
func (b *Bus) AnySoloed() bool {
	for _, t := range *b.tracks.Load() {
		if t.IsSoloed() {
			return true
		}
	}
	return false
}

// Audible reports whether t sounds under the current mute/solo state
func (b *Bus) Audible(t *track.Track) bool {
	if b.AnySoloed() {
		return t.IsSoloed()
	}
	return !t.IsMuted()
}

// Open checks that a track's format matches the bus
func (b *Bus) Open(sampleRate, channels int) error {
	if sampleRate != b.config.SampleRate || channels != b.config.Channels {
		return &output.StreamError{
			Backend: "bus",
			Op:      "open",
			Err: fmt.Errorf("format %dHz/%dch does not match bus %dHz/%dch",
				sampleRate, channels, b.config.SampleRate, b.config.Channels),
		}
	}
	return nil
}

// NewStream registers src with the bus. The stream starts paused.
func (b *Bus) NewStream(src output.Source) (output.Stream, error) {
	s := &busStream{bus: b, src: src}

	b.streamsMu.Lock()
	defer b.streamsMu.Unlock()

	old := *b.streams.Load()
	next := make([]*busStream, len(old), len(old)+1)
	copy(next, old)
	next = append(next, s)
	b.streams.Store(&next)
	return s, nil
}

func (b *Bus) removeStream(s *busStream) {
	b.streamsMu.Lock()
	defer b.streamsMu.Unlock()

	old := *b.streams.Load()
	next := make([]*busStream, 0, len(old))
	for _, o := range old {
		if o != s {
			next = append(next, o)
		}
	}
	b.streams.Store(&next)
}

// Streams returns the number of registered streams
func (b *Bus) Streams() int {
	return len(*b.streams.Load())
}

// Pull sums one block from every playing stream into dst. No limiting is
// applied. Pull is called from one goroutine at a time.
func (b *Bus) Pull(dst []float32) {
	clear(dst)

	if len(b.scratch) < len(dst) {
		b.scratch = make([]float32, len(dst))
	}
	block := b.scratch[:len(dst)]

	for _, s := range *b.streams.Load() {
		if !s.playing.Load() || s.ended.Load() {
			continue
		}
		_, err := s.src.Read(block)
		for i, v := range block {
			dst[i] += v
		}
		if err == io.EOF {
			s.ended.Store(true)
		}
	}
}

// Read implements output.Source for the device stream. The bus never ends.
func (b *Bus) Read(dst []float32) (int, error) {
	b.Pull(dst)
	return len(dst), nil
}

// Start opens device in the bus format and begins pulling the mix
func (b *Bus) Start(device output.Output) error {
	b.deviceMu.Lock()
	defer b.deviceMu.Unlock()

	if b.deviceStream != nil {
		return nil
	}
	if err := device.Open(b.config.SampleRate, b.config.Channels); err != nil {
		return err
	}
	stream, err := device.NewStream(b)
	if err != nil {
		return err
	}
	stream.Play()

	b.device = device
	b.deviceStream = stream
	log.Printf("Bus: mixing %d slots at %dHz, %d channels", len(*b.tracks.Load()), b.config.SampleRate, b.config.Channels)
	return nil
}

// Close stops every track and releases the device
func (b *Bus) Close() error {
	for _, t := range b.Tracks() {
		t.Pause()
	}

	b.deviceMu.Lock()
	defer b.deviceMu.Unlock()

	if b.deviceStream != nil {
		b.deviceStream.Close()
		b.deviceStream = nil
	}
	if b.device != nil {
		err := b.device.Close()
		b.device = nil
		return err
	}
	return nil
}

type busStream struct {
	bus     *Bus
	src     output.Source
	playing atomic.Bool
	ended   atomic.Bool
	once    sync.Once
}

func (s *busStream) Play() {
	s.playing.Store(true)
}

func (s *busStream) Pause() {
	s.playing.Store(false)
}

func (s *busStream) Close() error {
	s.once.Do(func() {
		s.playing.Store(false)
		s.bus.removeStream(s)
	})
	return nil
}
