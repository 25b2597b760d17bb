// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with one playback device per stream
package output

import (
	"encoding/binary"
	"errors"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	sampleRate int
	channels   int
	streams    map[*malgoStream]struct{}
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	return &Malgo{
		streams: make(map[*malgoStream]struct{}),
	}
}

// Open initializes the output device with specified format
func (m *Malgo) Open(sampleRate, channels int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return &StreamError{Backend: "malgo", Op: "open", Err: err}
		}
		m.malgoCtx = ctx
	}

	m.sampleRate = sampleRate
	m.channels = channels

	log.Printf("Audio output initialized: %dHz, %d channels (malgo)", sampleRate, channels)
	return nil
}

// NewStream creates a stopped playback device reading from src
func (m *Malgo) NewStream(src Source) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		return nil, &StreamError{Backend: "malgo", Op: "new stream", Err: errors.New("output not initialized")}
	}

	s := &malgoStream{owner: m, src: src, channels: m.channels}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(m.channels)
	deviceConfig.SampleRate = uint32(m.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			s.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, &StreamError{Backend: "malgo", Op: "init device", Err: err}
	}
	s.device = device
	m.streams[s] = struct{}{}
	return s, nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	streams := make([]*malgoStream, 0, len(m.streams))
	for s := range m.streams {
		streams = append(streams, s)
	}
	m.mu.Unlock()

	for _, s := range streams {
		s.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.malgoCtx != nil {
		err := m.malgoCtx.Uninit()
		m.malgoCtx.Free()
		m.malgoCtx = nil
		return err
	}
	return nil
}

type malgoStream struct {
	owner    *Malgo
	device   *malgo.Device
	src      Source
	channels int
	scratch  []float32
	done     atomic.Bool
	once     sync.Once
}

// dataCallback runs on the miniaudio thread
func (s *malgoStream) dataCallback(out []byte, frameCount uint32) {
	numSamples := int(frameCount) * s.channels
	if s.done.Load() {
		clear(out[:numSamples*4])
		return
	}

	if len(s.scratch) < numSamples {
		s.scratch = make([]float32, numSamples)
	}
	samples := s.scratch[:numSamples]

	// Device stop is not allowed from inside the callback; the owner of the
	// source closes the stream once it sees the end
	if _, err := s.src.Read(samples); err == io.EOF {
		s.done.Store(true)
	}
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
}

func (s *malgoStream) Play() {
	if err := s.device.Start(); err != nil {
		log.Printf("malgo: failed to start device: %v", err)
	}
}

func (s *malgoStream) Pause() {
	if err := s.device.Stop(); err != nil {
		log.Printf("malgo: failed to stop device: %v", err)
	}
}

func (s *malgoStream) Close() error {
	s.once.Do(func() {
		s.device.Uninit()
		s.owner.mu.Lock()
		delete(s.owner.streams, s)
		s.owner.mu.Unlock()
	})
	return nil
}
