// ABOUTME: Tests for the mix bus and offline export
// ABOUTME: Tests block summing, mute/solo law, padding and normalization
package mix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stemdeck/stemdeck-go/internal/jobs"
	"github.com/stemdeck/stemdeck-go/pkg/audio"
	"github.com/stemdeck/stemdeck-go/pkg/audio/decode"
	"github.com/stemdeck/stemdeck-go/pkg/audio/encode"
	"github.com/stemdeck/stemdeck-go/pkg/audio/output"
)

func constant(frames int, value float32) *audio.Buffer {
	buf := audio.Silence(frames, 44100, 1)
	for i := range buf.Samples {
		buf.Samples[i] = value
	}
	return buf
}

func monoBus(slots int) *Bus {
	return NewBus(Config{SampleRate: 44100, Channels: 1, Slots: slots})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewBusCreatesSlots(t *testing.T) {
	bus := NewBus(Config{})
	if len(bus.Tracks()) != DefaultSlots {
		t.Fatalf("expected %d slots, got %d", DefaultSlots, len(bus.Tracks()))
	}
	for i, tr := range bus.Tracks() {
		if tr.Index() != i+1 {
			t.Errorf("slot %d has index %d", i, tr.Index())
		}
	}
	if bus.Track(0) != nil || bus.Track(DefaultSlots+1) != nil {
		t.Error("out of range slots should be nil")
	}

	added := bus.AddTrack()
	if added.Index() != DefaultSlots+1 || bus.Track(DefaultSlots+1) != added {
		t.Errorf("added track has index %d", added.Index())
	}
}

func TestPullSumsPlayingTracks(t *testing.T) {
	bus := monoBus(3)
	bus.Track(1).Load(constant(100, 0.25), "a")
	bus.Track(2).Load(constant(100, 0.5), "b")
	bus.Track(3).Load(constant(100, 0.125), "c")
	bus.Track(1).Play()
	bus.Track(2).Play()

	dst := make([]float32, 10)
	bus.Pull(dst)
	for i, v := range dst {
		if v != 0.75 {
			t.Fatalf("sample %d: expected 0.75, got %f", i, v)
		}
	}
	if bus.Track(1).Position() != 10 || bus.Track(2).Position() != 10 {
		t.Error("playing tracks should advance")
	}
	if bus.Track(3).Position() != 0 {
		t.Error("stopped track should not advance")
	}
}

func TestPullAppliesMuteSoloLaw(t *testing.T) {
	tests := []struct {
		name   string
		muted  [3]bool
		soloed [3]bool
		want   float32
	}{
		{"all audible", [3]bool{}, [3]bool{}, 0.875},
		{"one muted", [3]bool{false, true, false}, [3]bool{}, 0.375},
		{"one soloed", [3]bool{}, [3]bool{false, true, false}, 0.5},
		{"solo beats mute", [3]bool{false, true, false}, [3]bool{false, true, false}, 0.5},
		{"muted non-solo stays silent", [3]bool{true, false, false}, [3]bool{false, false, true}, 0.125},
		{"two soloed", [3]bool{}, [3]bool{true, false, true}, 0.375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := monoBus(3)
			values := []float32{0.25, 0.5, 0.125}
			for i, tr := range bus.Tracks() {
				tr.Load(constant(100, values[i]), "t")
				tr.SetMuted(tt.muted[i])
				tr.SetSoloed(tt.soloed[i])
				tr.Play()
			}

			for i, tr := range bus.Tracks() {
				wantAudible := !tt.muted[i]
				if bus.AnySoloed() {
					wantAudible = tt.soloed[i]
				}
				if bus.Audible(tr) != wantAudible {
					t.Errorf("track %d: expected audible=%v", i+1, wantAudible)
				}
			}

			dst := make([]float32, 4)
			bus.Pull(dst)
			if dst[0] != tt.want {
				t.Errorf("expected %f, got %f", tt.want, dst[0])
			}
		})
	}
}

func TestFinishedTrackLeavesBus(t *testing.T) {
	bus := monoBus(1)
	tr := bus.Track(1)
	tr.Load(constant(8, 0.5), "short")
	tr.Play()
	if bus.Streams() != 1 {
		t.Fatalf("expected 1 stream, got %d", bus.Streams())
	}

	dst := make([]float32, 16)
	bus.Pull(dst)
	if dst[7] != 0.5 || dst[8] != 0 {
		t.Errorf("expected audio then padding, got %f %f", dst[7], dst[8])
	}

	waitFor(t, "stream removal", func() bool { return bus.Streams() == 0 })
	if tr.IsPlaying() {
		t.Error("track should have stopped")
	}
	if tr.Position() != 8 {
		t.Errorf("expected position 8, got %d", tr.Position())
	}
}

func TestBusDrivesHeadlessDevice(t *testing.T) {
	bus := NewBus(Config{SampleRate: 1000, Channels: 2, Slots: 2})
	if err := bus.Start(output.NewHeadless(time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	buf := audio.Silence(50, 1000, 2)
	tr := bus.Track(1)
	tr.Load(buf, "short")
	tr.Play()

	waitFor(t, "playback to finish", func() bool { return !tr.IsPlaying() })
	if tr.Position() != 50 {
		t.Errorf("expected position 50, got %d", tr.Position())
	}
}

func TestBusOpenRejectsOtherFormats(t *testing.T) {
	bus := monoBus(1)
	if err := bus.Open(44100, 1); err != nil {
		t.Errorf("matching format rejected: %v", err)
	}
	var se *output.StreamError
	if err := bus.Open(48000, 2); !errors.As(err, &se) {
		t.Errorf("expected *output.StreamError, got %v", err)
	}
}

func TestMixdownPadsShorterTracks(t *testing.T) {
	bus := monoBus(2)
	bus.Track(1).Load(constant(44100, 0.25), "one second")
	bus.Track(2).Load(constant(88200, 0.5), "two seconds")

	mixed, err := Mixdown(bus.Tracks(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if mixed.Frames() != 88200 {
		t.Fatalf("expected 88200 frames, got %d", mixed.Frames())
	}
	if mixed.SampleRate != 44100 {
		t.Errorf("expected 44100Hz, got %d", mixed.SampleRate)
	}
	for i := 0; i < 44100; i++ {
		if mixed.Samples[i] != 0.75 {
			t.Fatalf("frame %d: expected sum 0.75, got %f", i, mixed.Samples[i])
		}
	}
	for i := 44100; i < 88200; i++ {
		if mixed.Samples[i] != 0.5 {
			t.Fatalf("frame %d: expected longer track alone, got %f", i, mixed.Samples[i])
		}
	}
}

func TestMixdownNormalizesPeak(t *testing.T) {
	tests := []struct {
		name     string
		values   []float32
		wantPeak float32
	}{
		{"under unity untouched", []float32{0.25, 0.5}, 0.75},
		{"over unity scaled to 1", []float32{0.8, 0.8}, 1},
		{"negative peak", []float32{-0.9, -0.9, 0.3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := monoBus(len(tt.values))
			for i, v := range tt.values {
				bus.Track(i + 1).Load(constant(100, v), "t")
			}

			mixed, err := Mixdown(bus.Tracks(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if mixed.Peak() != tt.wantPeak {
				t.Errorf("expected peak %f, got %f", tt.wantPeak, mixed.Peak())
			}
		})
	}
}

func TestMixdownIgnoresMuteSoloAndAppliesVolume(t *testing.T) {
	bus := monoBus(2)
	bus.Track(1).Load(constant(10, 0.5), "a")
	bus.Track(2).Load(constant(10, 0.5), "b")
	bus.Track(1).SetMuted(true)
	bus.Track(2).SetSoloed(true)
	bus.Track(2).SetVolume(0.5)

	mixed, err := Mixdown(bus.Tracks(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if mixed.Samples[0] != 0.75 {
		t.Errorf("expected 0.5 + 0.25, got %f", mixed.Samples[0])
	}
}

func TestMixdownMapsChannels(t *testing.T) {
	bus := NewBus(Config{SampleRate: 44100, Channels: 2, Slots: 1})
	bus.Track(1).Load(constant(10, 0.5), "mono")

	mixed, err := Mixdown(bus.Tracks(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if mixed.Channels != 2 || mixed.Frames() != 10 {
		t.Fatalf("expected 10 stereo frames, got %d frames %d ch", mixed.Frames(), mixed.Channels)
	}
}

func TestExportWithoutTracksFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.wav")
	enc, _ := encode.NewWAV(16)

	err := Export(path, monoBus(2).Tracks(), 1, enc)
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("expected *ExportError, got %v", err)
	}
	if !errors.Is(err, ErrNoTracks) {
		t.Errorf("expected ErrNoTracks, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written")
	}
}

func TestExportWritesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.wav")
	enc, _ := encode.NewWAV(16)

	bus := monoBus(2)
	bus.Track(1).Load(constant(441, 0.25), "a")
	bus.Track(2).Load(constant(882, 0.25), "b")

	if err := Export(path, bus.Tracks(), 1, enc); err != nil {
		t.Fatal(err)
	}

	buf, err := decode.File(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if buf.Frames() != 882 {
		t.Errorf("expected 882 frames, got %d", buf.Frames())
	}
	if buf.Samples[0] != 0.5 || buf.Samples[500] != 0.25 {
		t.Errorf("unexpected samples %f %f", buf.Samples[0], buf.Samples[500])
	}
}

func TestExporterSubmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.wav")
	enc, _ := encode.NewWAV(24)
	runner := jobs.NewRunner(jobs.Config{})
	defer runner.Close()

	bus := monoBus(1)
	bus.Track(1).Load(constant(100, 0.5), "a")

	h := NewExporter(bus, runner, enc).Submit(path, nil)
	v, err := h.Result()
	if err != nil {
		t.Fatalf("export job failed: %v", err)
	}
	if v.(string) != path {
		t.Errorf("expected result %q, got %v", path, v)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}
