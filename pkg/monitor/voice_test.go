package monitor

import "testing"

func notesOf(voices []Voice) []uint8 {
	notes := make([]uint8, len(voices))
	for i, v := range voices {
		notes[i] = v.Note
	}
	return notes
}

func TestVoiceRegistryUpsert(t *testing.T) {
	var r VoiceRegistry

	i := r.Upsert(64, 1)
	r.Update(64, 2, func(v *Voice) { v.Z = 90 })
	if j := r.Upsert(64, 3); j != i {
		t.Errorf("Upsert() = %d, want existing index %d", j, i)
	}

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	v, _ := r.Get(64)
	if v.Z != 90 || v.Bend != BendDefault || v.Y != YDefault {
		t.Errorf("voice = %+v, want z=90 and default bend/y", v)
	}
	if v.Created != 1 || v.Updated != 2 {
		t.Errorf("Created/Updated = %d/%d, want 1/2", v.Created, v.Updated)
	}
}

func TestVoiceRegistryDefaults(t *testing.T) {
	var r VoiceRegistry
	r.Upsert(10, 1)
	v, ok := r.Get(10)
	if !ok {
		t.Fatal("Get(10) missing")
	}
	if v.Z != ZDefault || v.Bend != BendDefault || v.Y != YDefault {
		t.Errorf("voice = %+v, want defaults", v)
	}
}

func TestVoiceRegistryOrder(t *testing.T) {
	var r VoiceRegistry
	for _, n := range []uint8{60, 48, 72, 55} {
		r.Upsert(n, 0)
	}
	r.Remove(48)
	r.Remove(100)
	r.Update(48, 0, func(v *Voice) { v.Y = 1 })
	r.Update(60, 0, func(v *Voice) { v.Bend = 0 })

	want := []uint8{60, 72, 55, 48}
	got := notesOf(r.Snapshot())
	if len(got) != len(want) {
		t.Fatalf("notes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notes = %v, want %v", got, want)
		}
	}
}

func TestVoiceRegistryUpdateAll(t *testing.T) {
	var r VoiceRegistry
	r.Upsert(1, 0)
	r.Upsert(2, 0)
	r.UpdateAll(5, func(v *Voice) { v.Z = 7 })

	for _, v := range r.Snapshot() {
		if v.Z != 7 || v.Updated != 5 {
			t.Errorf("voice %d = %+v, want z=7 updated=5", v.Note, v)
		}
	}
}

func TestVoiceRegistrySnapshotIsCopy(t *testing.T) {
	var r VoiceRegistry
	r.Upsert(1, 0)
	snap := r.Snapshot()
	snap[0].Z = 100

	if v, _ := r.Get(1); v.Z != ZDefault {
		t.Error("modifying a snapshot changed the registry")
	}
}

func TestVoiceRegistryClear(t *testing.T) {
	var r VoiceRegistry
	r.Upsert(1, 0)
	r.Upsert(2, 0)
	r.Clear()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after Clear", r.Len())
	}
	if s := r.Snapshot(); s == nil || len(s) != 0 {
		t.Errorf("Snapshot() = %v, want empty non-nil", s)
	}
}
