package monitor

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestNoteSet(t *testing.T) {
	var s NoteSet
	for _, n := range []uint8{127, 0, 64, 63, 64} {
		s.Add(n)
	}

	if got, want := s.Notes(), []uint8{0, 63, 64, 127}; !slices.Equal(got, want) {
		t.Errorf("Notes() = %v, want %v", got, want)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}

	s.Remove(63)
	s.Remove(5)
	if s.Has(63) || !s.Has(64) {
		t.Error("Remove(63) should only drop 63")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "[0,64,127]" {
		t.Errorf("Marshal() = %s, want [0,64,127]", data)
	}

	var back NoteSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != s {
		t.Errorf("Unmarshal() = %v, want %v", back.Notes(), s.Notes())
	}
}

func TestChannelTableNoteOnOff(t *testing.T) {
	table := NewChannelTable()

	table.NoteOn(2, 64)
	table.NoteOn(2, 64)
	table.NoteOn(2, 67)
	r := table.Record(2)
	if r.LastNoteOn != 67 || r.LastNoteOff != None {
		t.Errorf("after NoteOn: on=%d off=%d, want 67 none", r.LastNoteOn, r.LastNoteOff)
	}
	if got := r.HeldNotes.Notes(); !slices.Equal(got, []uint8{64, 67}) {
		t.Errorf("HeldNotes = %v, want [64 67]", got)
	}

	table.PitchBend(2, 9000)
	table.ControlChange(2, 74, 20)

	// releasing a note other than the last one keeps LastNoteOn
	table.NoteOff(2, 64)
	if r.LastNoteOn != 67 || r.LastNoteOff != 64 {
		t.Errorf("after NoteOff(64): on=%d off=%d, want 67 64", r.LastNoteOn, r.LastNoteOff)
	}
	if r.LastBend != None || r.LastCCNumber != None {
		t.Errorf("NoteOff should blank bend and cc, got bend=%d cc=%d", r.LastBend, r.LastCCNumber)
	}
	if r.LastCCValue != 20 {
		t.Errorf("LastCCValue = %d, want 20", r.LastCCValue)
	}

	table.NoteOff(2, 67)
	if r.LastNoteOn != None || r.HeldNotes.Len() != 0 {
		t.Errorf("after NoteOff(67): on=%d held=%v", r.LastNoteOn, r.HeldNotes.Notes())
	}

	if other := table.Record(1); other.HeldNotes.Len() != 0 || other.LastNoteOff != None {
		t.Error("channel 1 should be untouched")
	}
}

func TestChannelTableReturnsHeldNotes(t *testing.T) {
	table := NewChannelTable()
	table.NoteOn(5, 60)
	table.NoteOn(5, 62)

	held := table.ControlChange(5, 1, 99)
	if !held.Has(60) || !held.Has(62) {
		t.Errorf("ControlChange held = %v", held.Notes())
	}
	held = table.PitchBend(5, 100)
	if held.Len() != 2 {
		t.Errorf("PitchBend held = %v", held.Notes())
	}
	r := table.Record(5)
	if r.LastCCNumber != 1 || r.LastCCValue != 99 || r.LastBend != 100 {
		t.Errorf("record = %+v", *r)
	}

	table.ChannelPressure(5, 33)
	if r.ChannelPressure != 33 {
		t.Errorf("ChannelPressure = %d, want 33", r.ChannelPressure)
	}
}

func TestChannelTableReset(t *testing.T) {
	table := NewChannelTable()
	table.NoteOn(16, 1)
	table.ChannelPressure(16, 5)
	table.Reset()

	for ch := uint8(1); ch <= 16; ch++ {
		if *table.Record(ch) != NewChannelRecord() {
			t.Errorf("channel %d not reset: %+v", ch, *table.Record(ch))
		}
	}
}
