package monitor

// route propagates ev into the voice registry. held is the sending
// channel's held notes after the channel table has seen ev.
//
// Channel pressure and CC 11 set Z on every voice regardless of channel,
// while bend and the third dimension only reach the channel's own notes.
func route(ev Event, held NoteSet, cfg Config, voices *VoiceRegistry, seq uint64) {
	switch ev.Kind {
	case KindNoteOn:
		voices.Upsert(ev.Key, seq)

	case KindNoteOff:
		voices.Remove(ev.Key)

	case KindPolyPressure:
		if cfg.PressureSource == PolyPressure {
			voices.Update(ev.Key, seq, func(v *Voice) { v.Z = ev.Pressure })
		}

	case KindControlChange:
		if ev.Controller == cfg.ThirdDimensionCC {
			for _, note := range held.Notes() {
				voices.Update(note, seq, func(v *Voice) { v.Y = ev.Value })
			}
		}
		if cfg.PressureSource == ControllerEleven && ev.Controller == expressionCC {
			voices.UpdateAll(seq, func(v *Voice) { v.Z = ev.Value })
		}

	case KindChannelPressure:
		if cfg.PressureSource == ChannelPressure {
			voices.UpdateAll(seq, func(v *Voice) { v.Z = ev.Pressure })
		}

	case KindPitchBend:
		for _, note := range held.Notes() {
			voices.Update(note, seq, func(v *Voice) { v.Bend = ev.Bend })
		}
	}
}
