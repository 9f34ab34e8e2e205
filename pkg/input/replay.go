package input

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

type timedMessage struct {
	tick  int64
	track int
	order int
	data  []byte
}

// Replay feeds the channel messages of a Standard MIDI File to p in time
// order, merging tracks. Meta and SysEx events are skipped. It returns the
// number of messages delivered.
func Replay(r io.Reader, p Processor) (int, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	var msgs []timedMessage
	for ti, track := range s.Tracks {
		var tick int64
		for ei, ev := range track {
			tick += int64(ev.Delta)

			msg := ev.Message
			if len(msg) == 0 || msg[0] < 0x80 || msg[0] >= 0xF0 {
				continue
			}
			msgs = append(msgs, timedMessage{tick: tick, track: ti, order: ei, data: msg})
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		if msgs[i].track != msgs[j].track {
			return msgs[i].track < msgs[j].track
		}
		return msgs[i].order < msgs[j].order
	})

	for _, m := range msgs {
		p.Process(m.data)
	}
	return len(msgs), nil
}

// ReplayFile replays the MIDI file at path
func ReplayFile(path string, p Processor) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Replay(f, p)
}
