// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests key handling, prompts, snapshot updates and rendering helpers
package ui

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stemdeck/stemdeck-go/internal/app"
	"github.com/stemdeck/stemdeck-go/internal/jobs"
	"github.com/stemdeck/stemdeck-go/pkg/effects"
	"github.com/stemdeck/stemdeck-go/pkg/stems"
	"github.com/stemdeck/stemdeck-go/pkg/track"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeController struct {
	snap    app.Snapshot
	calls   []string
	volume  float64
	path    string
	slot    int
	method  stems.Method
	effect  effects.Effect
	failing error
}

func (f *fakeController) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeController) Import(slot int, path string) error {
	f.record("import")
	f.slot, f.path = slot, path
	return f.failing
}

func (f *fakeController) Split(path string, method stems.Method) (*jobs.Handle, error) {
	f.record("split")
	f.path, f.method = path, method
	return nil, f.failing
}

func (f *fakeController) Export(path string) *jobs.Handle {
	f.record("export")
	f.path = path
	return nil
}

func (f *fakeController) TogglePlay(slot int) error {
	f.record("toggle")
	f.slot = slot
	return f.failing
}

func (f *fakeController) SyncPlay() error { f.record("syncplay"); return nil }
func (f *fakeController) SetSync(enabled bool) { f.record("sync"); f.snap.Sync = enabled }
func (f *fakeController) SetVolume(slot int, v float64) { f.record("volume"); f.slot, f.volume = slot, v }
func (f *fakeController) ToggleMute(slot int) { f.record("mute"); f.slot = slot }
func (f *fakeController) ToggleSolo(slot int) { f.record("solo"); f.slot = slot }
func (f *fakeController) CycleEffect(slot int) { f.record("effect"); f.slot = slot }
func (f *fakeController) SetEffect(slot int, e effects.Effect) { f.record("seteffect"); f.slot, f.effect = slot, e }
func (f *fakeController) Snapshot() app.Snapshot { return f.snap }

func (f *fakeController) Nudge(slot int, delta float64) error {
	f.record("nudge")
	f.slot = slot
	return nil
}

func newFake(tracks int) *fakeController {
	f := &fakeController{}
	for i := 1; i <= tracks; i++ {
		f.snap.Tracks = append(f.snap.Tracks, track.Status{Index: i, Volume: 1, Effect: effects.None{}})
	}
	return f
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestNewModel(t *testing.T) {
	model := NewModel(newFake(4), stems.MethodDemucs)

	if model.selected != 1 {
		t.Errorf("expected first track selected, got %d", model.selected)
	}
	if len(model.snap.Tracks) != 4 {
		t.Errorf("expected snapshot with 4 tracks, got %d", len(model.snap.Tracks))
	}
	if model.mode != modeNormal {
		t.Error("expected normal mode initially")
	}
	if model.quitting {
		t.Error("expected quitting to be false initially")
	}
}

func TestSelection(t *testing.T) {
	model := NewModel(newFake(3), stems.MethodDemucs)

	model, _ = press(model, tea.KeyMsg{Type: tea.KeyUp})
	if model.selected != 1 {
		t.Errorf("selection should not go above 1, got %d", model.selected)
	}

	model, _ = press(model, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if model.selected != 3 {
		t.Errorf("selection should stop at last track, got %d", model.selected)
	}

	model, _ = press(model, runes("2"))
	if model.selected != 2 {
		t.Errorf("expected digit to select track 2, got %d", model.selected)
	}
	model, _ = press(model, runes("9"))
	if model.selected != 2 {
		t.Errorf("out of range digit should be ignored, got %d", model.selected)
	}
}

func TestTransportKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "toggle"},
		{runes("p"), "syncplay"},
		{tea.KeyMsg{Type: tea.KeyLeft}, "nudge"},
		{tea.KeyMsg{Type: tea.KeyRight}, "nudge"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ctrl := newFake(2)
			model := NewModel(ctrl, stems.MethodDemucs)
			model, _ = press(model, runes("2"))

			_, cmd := press(model, tt.key)
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if msg := cmd(); msg != nil {
				t.Errorf("expected no message on success, got %v", msg)
			}
			if len(ctrl.calls) != 1 || ctrl.calls[0] != tt.want {
				t.Errorf("expected %s, got %v", tt.want, ctrl.calls)
			}
		})
	}
}

func TestTrackKeys(t *testing.T) {
	ctrl := newFake(2)
	ctrl.snap.Tracks[1].Volume = 0.5
	model := NewModel(ctrl, stems.MethodDemucs)
	model, _ = press(model, runes("2"))

	press(model, runes("+"))
	if ctrl.slot != 2 || math.Abs(ctrl.volume-0.55) > 1e-9 {
		t.Errorf("expected volume 0.55 on slot 2, got %v on %d", ctrl.volume, ctrl.slot)
	}
	press(model, runes("-"))
	if math.Abs(ctrl.volume-0.45) > 1e-9 {
		t.Errorf("expected volume 0.45, got %v", ctrl.volume)
	}

	press(model, runes("m"), runes("o"), runes("e"))
	want := []string{"volume", "volume", "mute", "solo", "effect"}
	if strings.Join(ctrl.calls, ",") != strings.Join(want, ",") {
		t.Errorf("expected calls %v, got %v", want, ctrl.calls)
	}
}

func TestEffectParamKeys(t *testing.T) {
	ctrl := newFake(2)
	ctrl.snap.Tracks[1].Effect = effects.Default(effects.KindReverb)
	model := NewModel(ctrl, stems.MethodDemucs)
	model, _ = press(model, runes("2"))

	// room_size defaults to 0.5 and steps by 1/20 of its range
	model, _ = press(model, runes("]"), runes("]"))
	r, ok := ctrl.effect.(effects.Reverb)
	if !ok {
		t.Fatalf("expected Reverb, got %T", ctrl.effect)
	}
	if ctrl.slot != 2 || math.Abs(r.RoomSize-0.6) > 1e-9 {
		t.Errorf("expected room_size 0.6 on slot 2, got %v on %d", r.RoomSize, ctrl.slot)
	}
	if r.Damping != 0.5 {
		t.Errorf("other parameters should keep their values, damping=%v", r.Damping)
	}

	// tab moves to damping
	model, _ = press(model, tea.KeyMsg{Type: tea.KeyTab}, runes("["))
	r = ctrl.effect.(effects.Reverb)
	if math.Abs(r.Damping-0.45) > 1e-9 || math.Abs(r.RoomSize-0.6) > 1e-9 {
		t.Errorf("expected damping 0.45 and room_size 0.6, got %v and %v", r.Damping, r.RoomSize)
	}
	if got := model.snap.Tracks[1].Effect; got != ctrl.effect {
		t.Errorf("expected displayed effect to follow the change, got %#v", got)
	}
}

func TestEffectParamClampsToRange(t *testing.T) {
	ctrl := newFake(1)
	ctrl.snap.Tracks[0].Effect = effects.Chorus{RateHz: 1.5, Depth: 0.98}
	model := NewModel(ctrl, stems.MethodDemucs)

	// depth is the second chorus parameter
	model, _ = press(model, tea.KeyMsg{Type: tea.KeyTab}, runes("]"), runes("]"))
	c := ctrl.effect.(effects.Chorus)
	if c.Depth != 1 {
		t.Errorf("expected depth clamped to 1, got %v", c.Depth)
	}
	if c.RateHz != 1.5 {
		t.Errorf("expected rate unchanged, got %v", c.RateHz)
	}
}

func TestEffectParamWithoutParameters(t *testing.T) {
	ctrl := newFake(1)
	model := NewModel(ctrl, stems.MethodDemucs)

	model, _ = press(model, runes("]"))
	if len(ctrl.calls) != 0 {
		t.Errorf("expected no calls for an effect without parameters, got %v", ctrl.calls)
	}
	if model.notice == "" {
		t.Error("expected a notice")
	}
}

func TestSyncToggle(t *testing.T) {
	ctrl := newFake(2)
	model := NewModel(ctrl, stems.MethodDemucs)

	model, _ = press(model, runes("s"))
	if !ctrl.snap.Sync || !model.snap.Sync {
		t.Error("expected sync enabled")
	}
	model, _ = press(model, runes("s"))
	if ctrl.snap.Sync || model.snap.Sync {
		t.Error("expected sync disabled")
	}
}

func TestImportPrompt(t *testing.T) {
	ctrl := newFake(4)
	model := NewModel(ctrl, stems.MethodDemucs)
	model, _ = press(model, runes("3"), runes("i"))
	if model.mode != modeImport {
		t.Fatal("expected import prompt")
	}

	model, _ = press(model, runes("my"), tea.KeyMsg{Type: tea.KeySpace}, runes("songx"), tea.KeyMsg{Type: tea.KeyBackspace}, runes(".wav"))
	if model.input != "my song.wav" {
		t.Fatalf("expected typed path, got %q", model.input)
	}

	model, cmd := press(model, tea.KeyMsg{Type: tea.KeyEnter})
	if model.mode != modeNormal {
		t.Error("prompt should close on enter")
	}
	msg := cmd()
	if ctrl.path != "my song.wav" || ctrl.slot != 3 {
		t.Errorf("expected import of %q into 3, got %q into %d", "my song.wav", ctrl.path, ctrl.slot)
	}

	model, _ = press(model, msg)
	if !strings.Contains(model.notice, "Loaded") {
		t.Errorf("expected load notice, got %q", model.notice)
	}
}

func TestImportFailureShowsError(t *testing.T) {
	ctrl := newFake(1)
	ctrl.failing = errors.New("unsupported audio format")
	model := NewModel(ctrl, stems.MethodDemucs)

	model, _ = press(model, runes("i"), runes("x.txt"))
	model, cmd := press(model, tea.KeyMsg{Type: tea.KeyEnter})
	model, _ = press(model, cmd())
	if !strings.Contains(model.notice, "unsupported audio format") {
		t.Errorf("expected error notice, got %q", model.notice)
	}
}

func TestPromptCancel(t *testing.T) {
	ctrl := newFake(1)
	model := NewModel(ctrl, stems.MethodDemucs)

	model, _ = press(model, runes("x"), runes("song.flac"), tea.KeyMsg{Type: tea.KeyEsc})
	if model.mode != modeNormal || model.input != "" {
		t.Error("escape should close and clear the prompt")
	}
	if len(ctrl.calls) != 0 {
		t.Errorf("cancelled prompt should not call the controller, got %v", ctrl.calls)
	}
}

func TestSplitAndExportPrompts(t *testing.T) {
	ctrl := newFake(4)
	model := NewModel(ctrl, stems.MethodSpleeter)

	model, _ = press(model, runes("x"), runes("song.flac"), tea.KeyMsg{Type: tea.KeyEnter})
	if ctrl.path != "song.flac" || ctrl.method != stems.MethodSpleeter {
		t.Errorf("expected spleeter split of song.flac, got %q %v", ctrl.path, ctrl.method)
	}
	if !strings.Contains(model.notice, "Separating") {
		t.Errorf("expected separating notice, got %q", model.notice)
	}

	model, _ = press(model, runes("w"))
	if model.input != "mix.wav" {
		t.Errorf("expected default export name, got %q", model.input)
	}
	model, _ = press(model, tea.KeyMsg{Type: tea.KeyEnter})
	if ctrl.path != "mix.wav" {
		t.Errorf("expected export to mix.wav, got %q", ctrl.path)
	}
}

func TestSnapshotMsg(t *testing.T) {
	ctrl := newFake(4)
	model := NewModel(ctrl, stems.MethodDemucs)
	model, _ = press(model, runes("4"))

	model, _ = press(model, SnapshotMsg(app.Snapshot{
		Tracks:  ctrl.snap.Tracks[:2],
		Sync:    true,
		Message: "Loaded 4 stems",
	}))
	if model.selected != 2 {
		t.Errorf("selection should be clamped to 2, got %d", model.selected)
	}
	if !model.snap.Sync || model.snap.Message != "Loaded 4 stems" {
		t.Errorf("snapshot not applied: %+v", model.snap)
	}
}

func TestQuit(t *testing.T) {
	model := NewModel(newFake(1), stems.MethodDemucs)
	model, cmd := press(model, runes("q"))
	if !model.quitting || cmd == nil {
		t.Error("expected quit")
	}
	if model.View() != "Shutting down...\n" {
		t.Errorf("unexpected view %q", model.View())
	}
}

func TestView(t *testing.T) {
	ctrl := newFake(2)
	ctrl.snap.Tracks[0] = track.Status{
		Index: 1, Name: "vocals.wav", Loaded: true, Playing: true,
		Position: 44100, Frames: 441000, SampleRate: 44100,
		Volume: 0.8, Muted: true, Effect: effects.Default(effects.KindReverb),
	}
	model := NewModel(ctrl, stems.MethodDemucs)
	if model.View() != "Loading..." {
		t.Error("expected loading view before the window size is known")
	}

	model, _ = press(model, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := model.View()
	for _, want := range []string{"vocals.wav", "0:01/0:10", "80%", "Reverb room_size=0.50", "(empty)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value, max, width int
		expected          string
	}{
		{0, 100, 4, "░░░░"},
		{50, 100, 4, "██░░"},
		{100, 100, 4, "████"},
		{150, 100, 4, "████"},
		{5, 0, 4, "░░░░"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, tt.max, tt.width); got != tt.expected {
			t.Errorf("renderBar(%d, %d, %d) = %q, expected %q", tt.value, tt.max, tt.width, got, tt.expected)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{9.9, "0:09"},
		{61, "1:01"},
		{-3, "0:00"},
	}

	for _, tt := range tests {
		if got := formatTime(tt.seconds); got != tt.expected {
			t.Errorf("formatTime(%v) = %q, expected %q", tt.seconds, got, tt.expected)
		}
	}
}
