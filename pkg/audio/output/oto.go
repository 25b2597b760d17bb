// ABOUTME: Oto-based audio output implementation
// ABOUTME: One shared oto context per process, one oto player per stream
package output

import (
	"encoding/binary"
	"errors"
	"io"
	"log"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto only allows one context per process
var (
	otoMu         sync.Mutex
	otoCtx        *oto.Context
	otoSampleRate int
	otoChannels   int
)

// Oto output implementation using oto library
type Oto struct {
	mu       sync.Mutex
	channels int
	streams  map[*otoStream]struct{}
	ready    bool
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{
		streams: make(map[*otoStream]struct{}),
	}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoSampleRate != sampleRate || otoChannels != channels {
			// oto cannot be reinitialized; keep the existing format
			log.Printf("Warning: format change requested (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
				otoSampleRate, otoChannels, sampleRate, channels)
		}
		if err := otoCtx.Resume(); err != nil {
			return &StreamError{Backend: "oto", Op: "resume", Err: err}
		}
		o.setReady(otoChannels)
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return &StreamError{Backend: "oto", Op: "open", Err: err}
	}
	<-readyChan

	otoCtx = ctx
	otoSampleRate = sampleRate
	otoChannels = channels
	o.setReady(channels)

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", sampleRate, channels)
	return nil
}

func (o *Oto) setReady(channels int) {
	o.mu.Lock()
	o.channels = channels
	o.ready = true
	o.mu.Unlock()
}

// NewStream creates a paused oto player reading from src
func (o *Oto) NewStream(src Source) (Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return nil, &StreamError{Backend: "oto", Op: "new stream", Err: errors.New("output not initialized")}
	}

	otoMu.Lock()
	ctx := otoCtx
	otoMu.Unlock()

	s := &otoStream{owner: o}
	s.reader = &float32Reader{src: src, channels: o.channels}
	s.player = ctx.NewPlayer(s.reader)
	o.streams[s] = struct{}{}
	return s, nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	streams := make([]*otoStream, 0, len(o.streams))
	for s := range o.streams {
		streams = append(streams, s)
	}
	o.ready = false
	o.mu.Unlock()

	for _, s := range streams {
		s.Close()
	}

	otoMu.Lock()
	defer otoMu.Unlock()
	if otoCtx != nil {
		return otoCtx.Suspend()
	}
	return nil
}

type otoStream struct {
	owner  *Oto
	player *oto.Player
	reader *float32Reader
	once   sync.Once
}

func (s *otoStream) Play() {
	s.player.Play()
}

func (s *otoStream) Pause() {
	s.player.Pause()
}

func (s *otoStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.player.Close()
		s.owner.mu.Lock()
		delete(s.owner.streams, s)
		s.owner.mu.Unlock()
	})
	return err
}

// float32Reader adapts a Source to the byte stream oto consumes
type float32Reader struct {
	src      Source
	channels int
	scratch  []float32
	done     bool
}

func (r *float32Reader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}

	// Whole frames only
	frameBytes := 4 * r.channels
	size := len(p) - len(p)%frameBytes
	if size == 0 {
		return 0, nil
	}
	numSamples := size / 4

	if len(r.scratch) < numSamples {
		r.scratch = make([]float32, numSamples)
	}
	samples := r.scratch[:numSamples]

	_, err := r.src.Read(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}

	if err == io.EOF {
		r.done = true
		return size, io.EOF
	}
	return size, nil
}
