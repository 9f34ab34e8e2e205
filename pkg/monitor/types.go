// Package monitor decodes a live MIDI/MPE stream into channel and voice state
package monitor

import (
	"errors"
	"fmt"
)

// Voice defaults
const (
	ZDefault    = 0
	YDefault    = 64
	BendDefault = 8192
)

// None marks an unset note, bend or controller field
const None = -1

// Config defaults
const (
	DefaultBendRange        = 48
	DefaultThirdDimensionCC = 74
	MaxBendRange            = 96
)

// BendPresets are the selectable pitch bend ranges in semitones
var BendPresets = []int{2, 3, 12, 24, 48}

// ErrInvalidConfig is wrapped by every Config validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// PressureSource selects which message drives voice pressure (Z)
type PressureSource string

const (
	ChannelPressure  PressureSource = "channel_pressure"
	PolyPressure     PressureSource = "poly_pressure"
	ControllerEleven PressureSource = "cc11"
)

// expressionCC is the controller read as pressure under ControllerEleven
const expressionCC = 11

// PressureSources lists the valid pressure sources in display order
var PressureSources = []PressureSource{ChannelPressure, PolyPressure, ControllerEleven}

// ParsePressureSource returns the PressureSource named by s
func ParsePressureSource(s string) (PressureSource, error) {
	for _, ps := range PressureSources {
		if string(ps) == s {
			return ps, nil
		}
	}
	return "", fmt.Errorf("%w: unknown pressure source %q", ErrInvalidConfig, s)
}

// Label returns a human readable name
func (p PressureSource) Label() string {
	switch p {
	case ChannelPressure:
		return "channel pressure"
	case PolyPressure:
		return "poly pressure"
	case ControllerEleven:
		return "CC 11"
	default:
		return string(p)
	}
}

// Config is the caller-owned routing configuration read on every Process
type Config struct {
	BendRange        int            `json:"bend_range"`
	PressureSource   PressureSource `json:"pressure_source"`
	ThirdDimensionCC uint8          `json:"third_dimension_cc"`
}

// DefaultConfig returns the configuration used when no preferences exist
func DefaultConfig() Config {
	return Config{
		BendRange:        DefaultBendRange,
		PressureSource:   ChannelPressure,
		ThirdDimensionCC: DefaultThirdDimensionCC,
	}
}

// Validate checks the ranges the core relies on
func (c Config) Validate() error {
	var errs []error
	if c.BendRange < 1 || c.BendRange > MaxBendRange {
		errs = append(errs, fmt.Errorf("%w: bend range %d outside 1-%d", ErrInvalidConfig, c.BendRange, MaxBendRange))
	}
	if _, err := ParsePressureSource(string(c.PressureSource)); err != nil {
		errs = append(errs, err)
	}
	if c.ThirdDimensionCC > 127 {
		errs = append(errs, fmt.Errorf("%w: third dimension CC %d outside 0-127", ErrInvalidConfig, c.ThirdDimensionCC))
	}
	return errors.Join(errs...)
}

// ChannelRecord is the last observed state of one MIDI channel
type ChannelRecord struct {
	LastNoteOn      int     `json:"last_note_on"`
	LastNoteOff     int     `json:"last_note_off"`
	HeldNotes       NoteSet `json:"held_notes"`
	ChannelPressure uint8   `json:"channel_pressure"`
	LastBend        int     `json:"last_bend"`
	LastCCNumber    int     `json:"last_cc_number"`
	LastCCValue     uint8   `json:"last_cc_value"`
}

// NewChannelRecord returns a record with every optional field unset
func NewChannelRecord() ChannelRecord {
	return ChannelRecord{
		LastNoteOn:   None,
		LastNoteOff:  None,
		LastBend:     None,
		LastCCNumber: None,
	}
}

// Voice is one currently sounding note and its expression
type Voice struct {
	Note    uint8  `json:"note"`
	Z       uint8  `json:"z"`
	Bend    uint16 `json:"bend"`
	Y       uint8  `json:"y"`
	Created uint64 `json:"created"`
	Updated uint64 `json:"updated"`
}

// Snapshot is an immutable view of the monitor after a transition
type Snapshot struct {
	Seq      uint64            `json:"seq"`
	Channels [16]ChannelRecord `json:"channels"`
	Voices   []Voice           `json:"voices"`
	Config   Config            `json:"config"`
}

// Channel returns the record for channel 1-16
func (s *Snapshot) Channel(ch int) ChannelRecord {
	return s.Channels[ch-1]
}

// Voice returns the voice for note, if present
func (s *Snapshot) Voice(note uint8) (Voice, bool) {
	for _, v := range s.Voices {
		if v.Note == note {
			return v, true
		}
	}
	return Voice{}, false
}
