package monitor

import (
	"encoding/json"
	"math/bits"
)

// NoteSet is a set of MIDI notes 0-127, iterated in ascending order
type NoteSet [2]uint64

// Add inserts note
func (s *NoteSet) Add(note uint8) {
	note &= 0x7F
	s[note>>6] |= 1 << (note & 63)
}

// Remove deletes note
func (s *NoteSet) Remove(note uint8) {
	note &= 0x7F
	s[note>>6] &^= 1 << (note & 63)
}

// Has reports whether note is in the set
func (s NoteSet) Has(note uint8) bool {
	note &= 0x7F
	return s[note>>6]&(1<<(note&63)) != 0
}

// Len returns the number of notes in the set
func (s NoteSet) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1])
}

// Notes returns the notes in ascending order
func (s NoteSet) Notes() []uint8 {
	notes := make([]uint8, 0, s.Len())
	for w, word := range s {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			notes = append(notes, uint8(w*64+b))
			word &= word - 1
		}
	}
	return notes
}

// MarshalJSON encodes the set as an ascending list of notes
func (s NoteSet) MarshalJSON() ([]byte, error) {
	notes := s.Notes()
	ints := make([]int, len(notes))
	for i, n := range notes {
		ints[i] = int(n)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON decodes a list of notes
func (s *NoteSet) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	*s = NoteSet{}
	for _, n := range ints {
		if n >= 0 && n <= 127 {
			s.Add(uint8(n))
		}
	}
	return nil
}

// ChannelTable holds the records of channels 1-16, stored at channel-1.
// Channel numbers come from a status nibble, so any other value is a bug
// and panics.
type ChannelTable [16]ChannelRecord

// NewChannelTable returns a table with every record at its initial value
func NewChannelTable() ChannelTable {
	var t ChannelTable
	t.Reset()
	return t
}

// Reset restores every record to its initial value
func (t *ChannelTable) Reset() {
	for i := range t {
		t[i] = NewChannelRecord()
	}
}

// Record returns a pointer to the record of channel ch
func (t *ChannelTable) Record(ch uint8) *ChannelRecord {
	return &t[ch-1]
}

// NoteOn records note as sounding on ch
func (t *ChannelTable) NoteOn(ch, note uint8) {
	r := t.Record(ch)
	r.LastNoteOn = int(note)
	r.LastNoteOff = None
	r.HeldNotes.Add(note)
}

// NoteOff records the release of note on ch. The channel's bend and
// controller readouts are blanked as well.
func (t *ChannelTable) NoteOff(ch, note uint8) {
	r := t.Record(ch)
	r.LastNoteOff = int(note)
	if r.LastNoteOn == int(note) {
		r.LastNoteOn = None
	}
	r.HeldNotes.Remove(note)
	r.LastCCNumber = None
	r.LastBend = None
}

// ControlChange records the last controller and returns the notes held on ch
func (t *ChannelTable) ControlChange(ch, number, value uint8) NoteSet {
	r := t.Record(ch)
	r.LastCCNumber = int(number)
	r.LastCCValue = value
	return r.HeldNotes
}

// ChannelPressure records the channel's pressure
func (t *ChannelTable) ChannelPressure(ch, value uint8) {
	t.Record(ch).ChannelPressure = value
}

// PitchBend records the channel's bend and returns the notes held on ch
func (t *ChannelTable) PitchBend(ch uint8, raw uint16) NoteSet {
	r := t.Record(ch)
	r.LastBend = int(raw)
	return r.HeldNotes
}
