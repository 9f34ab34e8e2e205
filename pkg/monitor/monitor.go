package monitor

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
)

// Monitor owns the channel table and voice registry. Process, the resets
// and SetConfig are serialised, and each publishes a new Snapshot, so a
// reader never sees half a transition.
type Monitor struct {
	mu       sync.Mutex
	cfg      Config
	channels ChannelTable
	voices   VoiceRegistry
	seq      uint64

	snap   atomic.Pointer[Snapshot]
	logger *slog.Logger
}

// Option configures a Monitor
type Option func(*Monitor)

// WithLogger sets the logger used for debug output
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Monitor with an empty state. cfg must already be valid.
func New(cfg Config, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:      cfg,
		channels: NewChannelTable(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.publish()
	return m
}

// Process applies one raw MIDI message. Timing clock bytes, unknown
// messages and messages missing data bytes leave the state untouched.
func (m *Monitor) Process(raw []byte) {
	if len(raw) == 0 || raw[0] == TimingClock {
		return
	}

	ev := Decode(raw)
	if ev.Kind == KindUnknown {
		m.logger.Debug("ignoring message", "msg", midi.Message(raw).String())
		return
	}
	if len(raw)-1 < ev.Kind.DataLen() {
		m.logger.Debug("ignoring incomplete message", "kind", ev.Kind.String(), "bytes", len(raw))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.apply(ev)
	m.publish()
}

func (m *Monitor) apply(ev Event) {
	cfg := m.cfg
	m.seq++

	var held NoteSet
	switch ev.Kind {
	case KindNoteOn:
		m.channels.NoteOn(ev.Channel, ev.Key)
	case KindNoteOff:
		m.channels.NoteOff(ev.Channel, ev.Key)
	case KindControlChange:
		held = m.channels.ControlChange(ev.Channel, ev.Controller, ev.Value)
	case KindChannelPressure:
		m.channels.ChannelPressure(ev.Channel, ev.Pressure)
	case KindPitchBend:
		held = m.channels.PitchBend(ev.Channel, ev.Bend)
	}

	route(ev, held, cfg, &m.voices, m.seq)
	m.logger.Debug("processed", "event", ev.String(), "voices", m.voices.Len())
}

// ResetChannels restores all 16 channel records. Voices are kept.
func (m *Monitor) ResetChannels() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels.Reset()
	m.seq++
	m.publish()
}

// ResetVoices empties the voice registry. Channels are kept.
func (m *Monitor) ResetVoices() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.voices.Clear()
	m.seq++
	m.publish()
}

// SetConfig replaces the configuration used by subsequent messages
func (m *Monitor) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg
	m.seq++
	m.publish()
}

// Config returns the current configuration
func (m *Monitor) Config() Config {
	return m.Snapshot().Config
}

// Snapshot returns the state after the last transition. The snapshot is
// shared between readers and must not be modified.
func (m *Monitor) Snapshot() *Snapshot {
	return m.snap.Load()
}

func (m *Monitor) publish() {
	m.snap.Store(&Snapshot{
		Seq:      m.seq,
		Channels: m.channels,
		Voices:   m.voices.Snapshot(),
		Config:   m.cfg,
	})
}
