// Package tui provides the live terminal display for mpemonitor
package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/mpemonitor/pkg/monitor"
	"github.com/james-see/mpemonitor/pkg/prefs"
)

var (
	// Pressure is drawn in blue
	pressureBlue = lipgloss.Color("#3355FF")
	bendAmber    = lipgloss.Color("#FFB000")
	paleGray     = lipgloss.Color("#C0C0C0")
	darkGray     = lipgloss.Color("#333333")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(paleGray).
			Background(darkGray).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Foreground(bendAmber).
			Bold(true)

	zStyle = lipgloss.NewStyle().
		Foreground(pressureBlue)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(darkGray).
			Padding(0, 1)
)

// DisplayMode selects how voices are shown
type DisplayMode int

const (
	DisplayData DisplayMode = iota
	DisplayGraph
)

// frameInterval is how often the display re-reads the monitor
const frameInterval = 33 * time.Millisecond

const graphWidth = 41

// Model is the bubbletea model of the monitor display
type Model struct {
	mon       *monitor.Monitor
	store     *prefs.Store
	source    string
	display   DisplayMode
	channels  table.Model
	voices    table.Model
	spinner   spinner.Model
	// bendInput is focused while a custom bend range is being typed
	bendInput textinput.Model
	snap      *monitor.Snapshot
	err       error
	width     int
	height    int
}

type frameMsg time.Time

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// New creates a display over mon. source names the MIDI input shown in the
// header; store receives configuration changes made from the keyboard.
func New(mon *monitor.Monitor, store *prefs.Store, source string) Model {
	channels := table.New(
		table.WithColumns([]table.Column{
			{Title: "ch", Width: 3},
			{Title: "note on", Width: 9},
			{Title: "bend", Width: 6},
			{Title: "cc", Width: 9},
			{Title: "press", Width: 5},
			{Title: "held", Width: 16},
		}),
		table.WithHeight(17),
		table.WithFocused(false),
	)
	voices := table.New(
		table.WithColumns([]table.Column{
			{Title: "note", Width: 9},
			{Title: "bend", Width: 6},
			{Title: "bent note", Width: 9},
			{Title: "pressure", Width: 8},
			{Title: "3rd dim.", Width: 8},
		}),
		table.WithHeight(17),
		table.WithFocused(false),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(paleGray)
	styles.Selected = lipgloss.NewStyle()
	channels.SetStyles(styles)
	voices.SetStyles(styles)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(pressureBlue)

	in := textinput.New()
	in.Placeholder = fmt.Sprintf("1-%d", monitor.MaxBendRange)
	in.CharLimit = 2
	in.Width = 4
	in.Prompt = "bend range: "

	m := Model{
		mon:       mon,
		store:     store,
		source:    source,
		channels:  channels,
		voices:    voices,
		spinner:   s,
		bendInput: in,
	}
	m.refresh()
	return m
}

// Init starts the spinner and the frame ticker
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, nextFrame())
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.bendInput.Focused() {
			return m.updateBendInput(msg)
		}
		return m.updateKeys(msg)

	case frameMsg:
		m.refresh()
		return m, nextFrame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.bendInput.Focused() {
		var cmd tea.Cmd
		m.bendInput, cmd = m.bendInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateBendInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.bendInput.Blur()
		m.bendInput.Reset()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.bendInput.Value())
		m.bendInput.Blur()
		m.bendInput.Reset()

		n, err := strconv.Atoi(value)
		cfg := m.mon.Config()
		cfg.BendRange = n
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			m.err = fmt.Errorf("bend range %q: %w", value, monitor.ErrInvalidConfig)
			return m, nil
		}
		m.applyConfig(cfg)
		m.refresh()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.bendInput, cmd = m.bendInput.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "d":
		if m.display == DisplayData {
			m.display = DisplayGraph
		} else {
			m.display = DisplayData
		}
	case "c":
		m.mon.ResetChannels()
	case "v":
		m.mon.ResetVoices()
	case "b":
		cfg := m.mon.Config()
		cfg.BendRange = nextBendPreset(cfg.BendRange)
		m.applyConfig(cfg)
	case "r":
		m.err = nil
		cmd := m.bendInput.Focus()
		return m, cmd
	case "p":
		cfg := m.mon.Config()
		cfg.PressureSource = nextPressureSource(cfg.PressureSource)
		m.applyConfig(cfg)
	case "]", "+":
		cfg := m.mon.Config()
		cfg.ThirdDimensionCC = (cfg.ThirdDimensionCC + 1) % 128
		m.applyConfig(cfg)
	case "[", "-":
		cfg := m.mon.Config()
		cfg.ThirdDimensionCC = (cfg.ThirdDimensionCC + 127) % 128
		m.applyConfig(cfg)
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m *Model) applyConfig(cfg monitor.Config) {
	m.mon.SetConfig(cfg)
	m.err = nil
	if m.store == nil {
		return
	}
	if _, err := m.store.Record(prefs.ValuesFor(cfg)); err != nil {
		m.err = err
		return
	}
	if err := m.store.Save(); err != nil {
		m.err = err
	}
}

// nextBendPreset returns the smallest preset above current, wrapping to
// the first
func nextBendPreset(current int) int {
	for _, p := range monitor.BendPresets {
		if p > current {
			return p
		}
	}
	return monitor.BendPresets[0]
}

func nextPressureSource(current monitor.PressureSource) monitor.PressureSource {
	for i, ps := range monitor.PressureSources {
		if ps == current {
			return monitor.PressureSources[(i+1)%len(monitor.PressureSources)]
		}
	}
	return monitor.PressureSources[0]
}

func (m *Model) refresh() {
	m.snap = m.mon.Snapshot()
	m.channels.SetRows(channelRows(m.snap))
	m.voices.SetRows(voiceRows(m.snap))
}

func channelRows(s *monitor.Snapshot) []table.Row {
	rows := make([]table.Row, len(s.Channels))
	for i, ch := range s.Channels {
		held := make([]string, 0, ch.HeldNotes.Len())
		for _, n := range ch.HeldNotes.Notes() {
			held = append(held, strconv.Itoa(int(n)))
		}
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			formatNote(ch.LastNoteOn),
			optional(ch.LastBend),
			formatCC(ch),
			strconv.Itoa(int(ch.ChannelPressure)),
			strings.Join(held, " "),
		}
	}
	return rows
}

func voiceRows(s *monitor.Snapshot) []table.Row {
	rows := make([]table.Row, len(s.Voices))
	for i, v := range s.Voices {
		semi := monitor.ToSemitones(v.Bend, s.Config.BendRange)
		rows[i] = table.Row{
			formatNote(int(v.Note)),
			fmt.Sprintf("%.1f", semi),
			formatNote(monitor.BentNote(v.Note, v.Bend, s.Config.BendRange)),
			strconv.Itoa(int(v.Z)),
			strconv.Itoa(int(v.Y)),
		}
	}
	return rows
}

func formatNote(note int) string {
	if note < 0 {
		return ""
	}
	return fmt.Sprintf("%-4s %3d", monitor.NoteName(note), note)
}

func optional(v int) string {
	if v == monitor.None {
		return ""
	}
	return strconv.Itoa(v)
}

func formatCC(ch monitor.ChannelRecord) string {
	if ch.LastCCNumber == monitor.None {
		return ""
	}
	return fmt.Sprintf("%d: %d", ch.LastCCNumber, ch.LastCCValue)
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(m.viewHeader())
	s.WriteString("\n")

	channels := boxStyle.Render(titleStyle.Render(" MIDI messages ") + "\n" + m.channels.View())

	var voices string
	if m.display == DisplayGraph {
		voices = boxStyle.Render(titleStyle.Render(" Voices: graph ") + "\n" + m.viewGraph())
	} else {
		voices = boxStyle.Render(titleStyle.Render(" Voices: data ") + "\n" + m.viewVoiceTable())
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, channels, voices))

	if m.bendInput.Focused() {
		s.WriteString("\n")
		s.WriteString(m.bendInput.View())
		s.WriteString(labelStyle.Render("  enter: apply • esc: cancel"))
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("tab: data/graph • c: clear messages • v: clear voices • b: bend range • r: custom bend • p: pressure • [/]: 3rd dim. CC • q: quit"))

	return s.String()
}

func (m Model) viewHeader() string {
	cfg := m.snap.Config
	source := m.source
	if source == "" {
		source = "no input"
	}
	parts := []string{
		titleStyle.Render(" MPE Monitor "),
		labelStyle.Render("input ") + valueStyle.Render(source),
		labelStyle.Render("bend ") + valueStyle.Render(fmt.Sprintf("+/- %d", cfg.BendRange)),
		labelStyle.Render("pressure ") + valueStyle.Render(cfg.PressureSource.Label()),
		labelStyle.Render("3rd dim. ") + valueStyle.Render(fmt.Sprintf("CC %d", cfg.ThirdDimensionCC)),
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewVoiceTable() string {
	if len(m.snap.Voices) == 0 {
		return fmt.Sprintf("%s waiting for notes...", m.spinner.View())
	}
	return m.voices.View()
}

func (m Model) viewGraph() string {
	if len(m.snap.Voices) == 0 {
		return fmt.Sprintf("%s waiting for notes...", m.spinner.View())
	}

	var s strings.Builder
	for _, v := range m.snap.Voices {
		s.WriteString(graphRow(v, m.snap.Config.BendRange))
		s.WriteString("\n")
	}
	s.WriteString(labelStyle.Render("X is bend • Y is 3rd dim. • Z is pressure"))
	return s.String()
}

// graphRow draws one voice: the bend position on a centred axis, then Y
// and Z as bars
func graphRow(v monitor.Voice, bendRange int) string {
	axis := []rune(strings.Repeat("─", graphWidth))
	axis[graphWidth/2] = '┼'
	pos := int(math.Round(float64(graphWidth-1) * float64(v.Bend) / monitor.BendMax))
	axis[pos] = '●'

	semi := monitor.ToSemitones(v.Bend, bendRange)
	bent := monitor.BentNote(v.Note, v.Bend, bendRange)

	return fmt.Sprintf("%-4s %s X %5.1f  Y %s Z %s",
		monitor.NoteName(bent),
		valueStyle.Render(string(axis)),
		semi,
		bar(v.Y, labelStyle),
		bar(v.Z, zStyle),
	)
}

func bar(value uint8, style lipgloss.Style) string {
	const width = 10
	n := int(value) * width / 127
	return style.Render(strings.Repeat("█", n)+strings.Repeat("·", width-n)) + fmt.Sprintf(" %3d", value)
}

// Run starts the TUI application
func Run(mon *monitor.Monitor, store *prefs.Store, source string) error {
	p := tea.NewProgram(New(mon, store, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
