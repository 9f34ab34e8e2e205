package monitor

import "fmt"

// TimingClock is the real-time clock status byte, dropped before decoding
const TimingClock = 0xF8

// Kind identifies a decoded message type
type Kind int

const (
	KindUnknown Kind = iota
	KindNoteOff
	KindNoteOn
	KindPolyPressure
	KindControlChange
	KindChannelPressure
	KindPitchBend
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindNoteOff:         "noteoff",
	KindNoteOn:          "noteon",
	KindPolyPressure:    "polypressure",
	KindControlChange:   "controlchange",
	KindChannelPressure: "channelpressure",
	KindPitchBend:       "pitchbend",
}

// DataLen is the number of data bytes a message of kind k carries
func (k Kind) DataLen() int {
	switch k {
	case KindChannelPressure:
		return 1
	case KindNoteOff, KindNoteOn, KindPolyPressure, KindControlChange, KindPitchBend:
		return 2
	default:
		return 0
	}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a decoded channel message. Only the fields of its Kind are set.
type Event struct {
	Kind       Kind
	Channel    uint8 // 1-16, 0 for KindUnknown
	Key        uint8
	Velocity   uint8
	Pressure   uint8
	Controller uint8
	Value      uint8
	Bend       uint16
}

// Decode parses one MIDI message. It never fails: missing data bytes read
// as 0 and unrecognised status bytes give KindUnknown.
func Decode(data []byte) Event {
	if len(data) == 0 || data[0] < 0x80 || data[0] >= 0xF0 {
		return Event{Kind: KindUnknown}
	}

	status := data[0]
	d0 := dataByte(data, 1)
	d1 := dataByte(data, 2)

	ev := Event{Channel: status&0x0F + 1}

	switch status & 0xF0 {
	case 0x80:
		ev.Kind = KindNoteOff
		ev.Key = d0
	case 0x90:
		// velocity 0 stays a NoteOn
		ev.Kind = KindNoteOn
		ev.Key = d0
		ev.Velocity = d1
	case 0xA0:
		ev.Kind = KindPolyPressure
		ev.Key = d0
		ev.Pressure = d1
	case 0xB0:
		ev.Kind = KindControlChange
		ev.Controller = d0
		ev.Value = d1
	case 0xD0:
		ev.Kind = KindChannelPressure
		ev.Pressure = d0
	case 0xE0:
		ev.Kind = KindPitchBend
		ev.Bend = uint16(d0) + uint16(d1)*128
	default:
		return Event{Kind: KindUnknown}
	}
	return ev
}

// Complete reports whether data carries every data byte its status needs.
// Decode still fills the missing ones with 0.
func Complete(data []byte) bool {
	ev := Decode(data)
	if ev.Kind == KindUnknown {
		return false
	}
	return len(data)-1 >= ev.Kind.DataLen()
}

func dataByte(data []byte, i int) uint8 {
	if i >= len(data) {
		return 0
	}
	return data[i] & 0x7F
}

// String formats the event for logs and the decode command
func (e Event) String() string {
	switch e.Kind {
	case KindNoteOff:
		return fmt.Sprintf("ch=%d noteoff key=%d (%s)", e.Channel, e.Key, NoteName(int(e.Key)))
	case KindNoteOn:
		return fmt.Sprintf("ch=%d noteon key=%d (%s) velocity=%d", e.Channel, e.Key, NoteName(int(e.Key)), e.Velocity)
	case KindPolyPressure:
		return fmt.Sprintf("ch=%d polypressure key=%d pressure=%d", e.Channel, e.Key, e.Pressure)
	case KindControlChange:
		return fmt.Sprintf("ch=%d controlchange cc=%d value=%d", e.Channel, e.Controller, e.Value)
	case KindChannelPressure:
		return fmt.Sprintf("ch=%d channelpressure pressure=%d", e.Channel, e.Pressure)
	case KindPitchBend:
		return fmt.Sprintf("ch=%d pitchbend value=%d", e.Channel, e.Bend)
	default:
		return "unknown"
	}
}
