package monitor

import "math"

// Pitch bend limits
const (
	BendMin    = 0
	BendCenter = 8192
	BendMax    = 16383
)

// ToSemitones maps a 14-bit bend value to a signed semitone offset for a
// bend range of +/- rangeSemitones. Up has one step less than down, so each
// side uses its own divider to keep BendCenter at exactly 0.
func ToSemitones(raw uint16, rangeSemitones int) float64 {
	divider := 8192.0
	if raw > BendCenter {
		divider = 8191.0
	}
	return (float64(int(raw)-BendCenter) / divider) * float64(rangeSemitones)
}

// BentNote returns the note nearest to note shifted by the bend
func BentNote(note uint8, raw uint16, rangeSemitones int) int {
	return int(math.Round(float64(note) + ToSemitones(raw, rangeSemitones)))
}
