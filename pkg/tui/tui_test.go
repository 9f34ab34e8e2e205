package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/mpemonitor/pkg/monitor"
	"github.com/james-see/mpemonitor/pkg/prefs"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func newTestModel(t *testing.T) (Model, *monitor.Monitor, *prefs.Store) {
	t.Helper()
	store, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatal(err)
	}
	mon := monitor.New(monitor.DefaultConfig())
	return New(mon, store, "Test Input"), mon, store
}

func TestFrameRefreshesRows(t *testing.T) {
	m, mon, _ := newTestModel(t)
	mon.Process([]byte{0x91, 0x40, 0x7F})

	next, cmd := m.Update(frameMsg(time.Now()))
	m = next.(Model)
	if cmd == nil {
		t.Error("frame should schedule the next frame")
	}

	rows := channelRows(m.snap)
	if len(rows) != 16 {
		t.Fatalf("channel rows = %d, want 16", len(rows))
	}
	if !strings.Contains(rows[1][1], "E4") || rows[1][5] != "64" {
		t.Errorf("channel 2 row = %v", rows[1])
	}
	vrows := voiceRows(m.snap)
	if len(vrows) != 1 || vrows[0][1] != "0.0" || vrows[0][3] != "0" || vrows[0][4] != "64" {
		t.Errorf("voice rows = %v", vrows)
	}

	view := m.View()
	if !strings.Contains(view, "Test Input") || !strings.Contains(view, "+/- 48") {
		t.Error("header missing input or bend range")
	}
}

func TestClearKeys(t *testing.T) {
	m, mon, _ := newTestModel(t)
	mon.Process([]byte{0x90, 60, 100})

	press(t, m, "c")
	s := mon.Snapshot()
	if s.Channel(1).HeldNotes.Len() != 0 || len(s.Voices) != 1 {
		t.Errorf("c should clear channels only: %+v", s)
	}

	press(t, m, "v")
	if len(mon.Snapshot().Voices) != 0 {
		t.Error("v should clear voices")
	}
}

func TestConfigKeysPersist(t *testing.T) {
	m, mon, store := newTestModel(t)

	m = press(t, m, "b", "p", "]", "]", "[")
	want := monitor.Config{BendRange: 2, PressureSource: monitor.PolyPressure, ThirdDimensionCC: 75}
	if got := mon.Config(); got != want {
		t.Fatalf("config = %+v, want %+v", got, want)
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}

	reopened, err := prefs.Open(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if cfg, err := reopened.Resolve(); err != nil || cfg != want {
		t.Errorf("saved = %+v, %v, want %+v", cfg, err, want)
	}
}

func TestThirdDimensionWraps(t *testing.T) {
	m, mon, _ := newTestModel(t)
	cfg := mon.Config()
	cfg.ThirdDimensionCC = 0
	mon.SetConfig(cfg)

	press(t, m, "[")
	if got := mon.Config().ThirdDimensionCC; got != 127 {
		t.Errorf("CC = %d, want 127", got)
	}
}

func TestDisplayToggle(t *testing.T) {
	m, mon, _ := newTestModel(t)
	mon.Process([]byte{0x90, 60, 100})
	m = press(t, m, "tab")
	if m.display != DisplayGraph {
		t.Fatal("tab should switch to graph")
	}
	if !strings.Contains(m.View(), "X is bend") {
		t.Error("graph view missing legend")
	}
	m = press(t, m, "d")
	if m.display != DisplayData {
		t.Error("d should switch back to data")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestCustomBendRange(t *testing.T) {
	m, mon, store := newTestModel(t)

	m = press(t, m, "r")
	if !m.bendInput.Focused() {
		t.Fatal("r should open the bend range prompt")
	}
	m = press(t, m, "3", "6", "enter")
	if m.bendInput.Focused() {
		t.Error("enter should close the prompt")
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
	if got := mon.Config().BendRange; got != 36 {
		t.Errorf("BendRange = %d, want 36", got)
	}

	reopened, err := prefs.Open(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	v := reopened.Values()
	if v.BendSelect != prefs.BendCustom || v.BendCustom != "36" {
		t.Errorf("saved = %+v, want custom 36", v)
	}

	// a custom range steps to the next preset up
	press(t, m, "b")
	if got := mon.Config().BendRange; got != 48 {
		t.Errorf("BendRange after b = %d, want 48", got)
	}
}

func TestCustomBendRangeRejected(t *testing.T) {
	tests := []struct {
		name string
		keys []string
	}{
		{"out of range", []string{"r", "9", "9", "enter"}},
		{"zero", []string{"r", "0", "enter"}},
		{"not a number", []string{"r", "x", "enter"}},
		{"empty", []string{"r", "enter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, mon, _ := newTestModel(t)
			m = press(t, m, tt.keys...)
			if m.err == nil {
				t.Error("want an error")
			}
			if got := mon.Config().BendRange; got != monitor.DefaultBendRange {
				t.Errorf("BendRange = %d, want %d", got, monitor.DefaultBendRange)
			}
		})
	}
}

func TestCustomBendRangeCancel(t *testing.T) {
	m, mon, _ := newTestModel(t)

	m = press(t, m, "r", "q", "5", "esc")
	if m.bendInput.Focused() || m.bendInput.Value() != "" {
		t.Error("esc should close and clear the prompt")
	}
	if got := mon.Config().BendRange; got != monitor.DefaultBendRange {
		t.Errorf("BendRange = %d, want %d", got, monitor.DefaultBendRange)
	}
}

func TestNextBendPreset(t *testing.T) {
	tests := []struct {
		current int
		want    int
	}{
		{2, 3},
		{24, 48},
		{48, 2},
		{7, 12},
		{60, 2},
	}
	for _, tt := range tests {
		if got := nextBendPreset(tt.current); got != tt.want {
			t.Errorf("nextBendPreset(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestGraphRow(t *testing.T) {
	row := graphRow(monitor.Voice{Note: 60, Bend: monitor.BendMax, Z: 127, Y: 0}, 12)
	if !strings.Contains(row, "C5") || !strings.Contains(row, "12.0") {
		t.Errorf("graphRow = %q", row)
	}
	row = graphRow(monitor.Voice{Note: 60, Bend: monitor.BendMin}, 12)
	if !strings.Contains(row, "C3") || !strings.Contains(row, "-12.0") {
		t.Errorf("graphRow = %q", row)
	}
}
