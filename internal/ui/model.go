// ABOUTME: Bubbletea model for the workstation TUI
// ABOUTME: Defines application state, key handling and rendering
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/stemdeck/stemdeck-go/internal/app"
	"github.com/stemdeck/stemdeck-go/internal/jobs"
	"github.com/stemdeck/stemdeck-go/pkg/effects"
	"github.com/stemdeck/stemdeck-go/pkg/stems"
	"github.com/stemdeck/stemdeck-go/pkg/track"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of the workstation the TUI drives
type Controller interface {
	Import(slot int, path string) error
	Split(path string, method stems.Method) (*jobs.Handle, error)
	Export(path string) *jobs.Handle
	TogglePlay(slot int) error
	SyncPlay() error
	SetSync(enabled bool)
	Nudge(slot int, deltaSeconds float64) error
	SetVolume(slot int, v float64)
	ToggleMute(slot int)
	ToggleSolo(slot int)
	CycleEffect(slot int)
	SetEffect(slot int, e effects.Effect)
	Snapshot() app.Snapshot
}

// Step sizes for keyboard control
const (
	volumeStep  = 0.05
	nudgeStep   = 5.0
	paramSteps  = 20
	refreshRate = 100 * time.Millisecond
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeImport
	modeSplit
	modeExport
)

func (m inputMode) prompt() string {
	switch m {
	case modeImport:
		return "Import file"
	case modeSplit:
		return "Split file"
	case modeExport:
		return "Export to"
	default:
		return ""
	}
}

// SnapshotMsg replaces the displayed state
type SnapshotMsg app.Snapshot

type tickMsg time.Time

type resultMsg struct {
	text string
	err  error
}

// Model represents the TUI state
type Model struct {
	ctrl   Controller
	method stems.Method

	snap     app.Snapshot
	selected int

	// Index of the effect parameter [ and ] adjust
	param int

	// Path prompt
	mode  inputMode
	input string

	// Local status line, shown until the next workstation message
	notice string

	quitting bool

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case SnapshotMsg:
		m.applySnapshot(app.Snapshot(msg))
	case tickMsg:
		if m.ctrl != nil {
			m.applySnapshot(m.ctrl.Snapshot())
		}
		return m, tick()
	case resultMsg:
		if msg.err != nil {
			m.notice = "Error: " + msg.err.Error()
		} else {
			m.notice = msg.text
		}
	}

	return m, nil
}

// applySnapshot updates the model and keeps the selection in range
func (m *Model) applySnapshot(s app.Snapshot) {
	if s.Message != m.snap.Message {
		m.notice = ""
	}
	m.snap = s
	if m.selected < 1 {
		m.selected = 1
	}
	if n := len(s.Tracks); n > 0 && m.selected > n {
		m.selected = n
	}
}

// handleKey handles keyboard input in normal mode
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.selected > 1 {
			m.selected--
			m.param = 0
		}
	case "down", "j":
		if m.selected < len(m.snap.Tracks) {
			m.selected++
			m.param = 0
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(key[0] - '0')
		if n <= len(m.snap.Tracks) {
			m.selected = n
			m.param = 0
		}
	case " ", "space":
		return m, m.call(func() error { return m.ctrl.TogglePlay(m.selected) })
	case "p":
		return m, m.call(m.ctrl.SyncPlay)
	case "s":
		m.ctrl.SetSync(!m.snap.Sync)
		m.snap.Sync = !m.snap.Sync
	case "left":
		return m, m.call(func() error { return m.ctrl.Nudge(m.selected, -nudgeStep) })
	case "right":
		return m, m.call(func() error { return m.ctrl.Nudge(m.selected, nudgeStep) })
	case "+", "=":
		m.ctrl.SetVolume(m.selected, m.volume()+volumeStep)
	case "-":
		m.ctrl.SetVolume(m.selected, m.volume()-volumeStep)
	case "m":
		m.ctrl.ToggleMute(m.selected)
	case "o":
		m.ctrl.ToggleSolo(m.selected)
	case "e":
		m.ctrl.CycleEffect(m.selected)
		m.param = 0
	case "tab":
		if specs := m.paramSpecs(); len(specs) > 0 {
			m.param = (m.param + 1) % len(specs)
		}
	case "[":
		m.adjustParam(-1)
	case "]":
		m.adjustParam(1)
	case "i":
		m.mode, m.input = modeImport, ""
	case "x":
		m.mode, m.input = modeSplit, ""
	case "w":
		m.mode, m.input = modeExport, "mix.wav"
	}

	return m, nil
}

// handleInput edits the path prompt
func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode, m.input = modeNormal, ""
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	case tea.KeyEnter:
		return m.submit()
	}
	return m, nil
}

// submit runs the action for the prompt that was open
func (m Model) submit() (tea.Model, tea.Cmd) {
	mode, path := m.mode, strings.TrimSpace(m.input)
	m.mode, m.input = modeNormal, ""
	if path == "" {
		return m, nil
	}

	slot := m.selected
	switch mode {
	case modeImport:
		m.notice = "Loading " + path
		return m, func() tea.Msg {
			if err := m.ctrl.Import(slot, path); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: fmt.Sprintf("Loaded %s into track %d", path, slot)}
		}
	case modeSplit:
		method := m.method
		if _, err := m.ctrl.Split(path, method); err != nil {
			m.notice = "Error: " + err.Error()
			return m, nil
		}
		m.notice = fmt.Sprintf("Separating %s with %s", path, method)
	case modeExport:
		m.ctrl.Export(path)
		m.notice = "Exporting to " + path
	}
	return m, nil
}

// call runs fn off the update loop and reports only failures
func (m Model) call(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return resultMsg{err: err}
		}
		return nil
	}
}

// paramSpecs returns the parameters of the selected track's effect
func (m Model) paramSpecs() []effects.ParamSpec {
	if m.selected < 1 || m.selected > len(m.snap.Tracks) {
		return nil
	}
	e := m.snap.Tracks[m.selected-1].Effect
	if e == nil {
		return nil
	}
	return effects.ParamSpecs(e.Kind())
}

// adjustParam moves the selected effect parameter one step in direction
// dir and applies the result to the track
func (m *Model) adjustParam(dir float64) {
	specs := m.paramSpecs()
	if len(specs) == 0 {
		m.notice = "Effect has no parameters"
		return
	}
	p := specs[m.param%len(specs)]

	i := m.selected - 1
	cur := m.snap.Tracks[i].Effect
	params := cur.Params()
	params[p.Name] += dir * (p.Max - p.Min) / paramSteps
	e := effects.FromParams(cur.Kind().String(), params)
	m.ctrl.SetEffect(m.selected, e)

	// Show the new value before the next snapshot arrives
	tracks := append([]track.Status(nil), m.snap.Tracks...)
	tracks[i].Effect = e
	m.snap.Tracks = tracks
}

func (m Model) volume() float64 {
	if m.selected < 1 || m.selected > len(m.snap.Tracks) {
		return 0
	}
	return m.snap.Tracks[m.selected-1].Volume
}

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	for i, st := range m.snap.Tracks {
		b.WriteString(m.renderTrack(st, i+1 == m.selected))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders the title and sync state
func (m Model) renderHeader() string {
	syncText := "off"
	if m.snap.Sync {
		syncText = "on"
	}
	s := titleStyle.Render("Stemdeck") + "  " +
		headerStyle.Render("Sync: ") + valueStyle.Render(syncText)
	if m.snap.Busy > 0 {
		s += "  " + headerStyle.Render("Jobs: ") + valueStyle.Render(fmt.Sprintf("%d", m.snap.Busy))
	}
	return s
}

// renderTrack renders one slot row
func (m Model) renderTrack(st track.Status, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	if !st.Loaded {
		return cursor + dimStyle.Render(fmt.Sprintf("%d  (empty)", st.Index))
	}

	icon := "■"
	if st.Playing {
		icon = "▶"
	}
	flags := ""
	if st.Muted {
		flags += " M"
	}
	if st.Soloed {
		flags += " S"
	}

	elapsed, total := 0.0, 0.0
	if st.SampleRate > 0 {
		elapsed = float64(st.Position) / float64(st.SampleRate)
		total = float64(st.Frames) / float64(st.SampleRate)
	}

	name := fmt.Sprintf("%d %s %-24s", st.Index, icon, truncate(st.Name, 24))
	if selected {
		name = selectedStyle.Render(name)
	}

	fx := effectName(st)
	if selected {
		fx += m.paramLabel(st)
	}

	return cursor + name + valueStyle.Render(fmt.Sprintf(" [%s] %s/%s  vol [%s] %3d%%  %s%s",
		renderBar(st.Position, st.Frames, 20),
		formatTime(elapsed), formatTime(total),
		renderBar(int(st.Volume*100), 100, 10), int(st.Volume*100+0.5),
		fx, flags))
}

// paramLabel shows the parameter [ and ] would change, e.g. " room_size=0.50"
func (m Model) paramLabel(st track.Status) string {
	if st.Effect == nil {
		return ""
	}
	specs := effects.ParamSpecs(st.Effect.Kind())
	if len(specs) == 0 {
		return ""
	}
	p := specs[m.param%len(specs)]
	return fmt.Sprintf(" %s=%.2f", p.Name, st.Effect.Params()[p.Name])
}

// renderStatus renders the prompt or the latest message
func (m Model) renderStatus() string {
	if m.mode != modeNormal {
		return headerStyle.Render(m.mode.prompt()+": ") + m.input + "█"
	}
	msg := m.notice
	if msg == "" {
		msg = m.snap.Message
	}
	if strings.HasPrefix(msg, "Error") || strings.Contains(msg, "failed") {
		return errorStyle.Render(msg)
	}
	return valueStyle.Render(msg)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	if m.mode != modeNormal {
		return dimStyle.Render("enter:Confirm  esc:Cancel")
	}
	return dimStyle.Render("↑/↓:Select  space:Play  p:Play all  s:Sync  ←/→:Seek  +/-:Volume  m:Mute  o:Solo\n" +
		"e:Effect  tab:Param  [/]:Adjust  i:Import  x:Split  w:Export  q:Quit")
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = (value * width) / max
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func effectName(st track.Status) string {
	if st.Effect == nil {
		return "None"
	}
	return st.Effect.Kind().String()
}
