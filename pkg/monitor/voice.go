package monitor

import "slices"

// VoiceRegistry holds at most one voice per note, in insertion order
type VoiceRegistry struct {
	voices []Voice
}

// Len returns the number of voices
func (r *VoiceRegistry) Len() int {
	return len(r.voices)
}

func (r *VoiceRegistry) index(note uint8) int {
	return slices.IndexFunc(r.voices, func(v Voice) bool { return v.Note == note })
}

// Upsert returns the index of the voice for note, appending a voice with
// default expression if there is none. seq stamps a new voice.
func (r *VoiceRegistry) Upsert(note uint8, seq uint64) int {
	if i := r.index(note); i >= 0 {
		return i
	}
	r.voices = append(r.voices, Voice{
		Note:    note,
		Z:       ZDefault,
		Bend:    BendDefault,
		Y:       YDefault,
		Created: seq,
		Updated: seq,
	})
	return len(r.voices) - 1
}

// Update upserts the voice for note, lets fn change its fields and marks
// it updated at seq
func (r *VoiceRegistry) Update(note uint8, seq uint64, fn func(v *Voice)) {
	v := &r.voices[r.Upsert(note, seq)]
	fn(v)
	v.Note = note
	v.Updated = seq
}

// UpdateAll applies fn to every voice
func (r *VoiceRegistry) UpdateAll(seq uint64, fn func(v *Voice)) {
	for i := range r.voices {
		note := r.voices[i].Note
		fn(&r.voices[i])
		r.voices[i].Note = note
		r.voices[i].Updated = seq
	}
}

// Remove deletes the voice for note, if any
func (r *VoiceRegistry) Remove(note uint8) {
	if i := r.index(note); i >= 0 {
		r.voices = slices.Delete(r.voices, i, i+1)
	}
}

// Get returns the voice for note
func (r *VoiceRegistry) Get(note uint8) (Voice, bool) {
	if i := r.index(note); i >= 0 {
		return r.voices[i], true
	}
	return Voice{}, false
}

// Snapshot returns a copy of the voices in insertion order
func (r *VoiceRegistry) Snapshot() []Voice {
	out := make([]Voice, len(r.voices))
	copy(out, r.voices)
	return out
}

// Clear removes every voice
func (r *VoiceRegistry) Clear() {
	r.voices = nil
}
