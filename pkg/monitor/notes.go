package monitor

import "strconv"

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a MIDI note, 60 being C4.
// Notes outside 0-127 have no name.
func NoteName(note int) string {
	if note < 0 || note > 127 {
		return ""
	}
	return pitchClasses[note%12] + strconv.Itoa(note/12-1)
}
