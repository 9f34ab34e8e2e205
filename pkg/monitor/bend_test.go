package monitor

import (
	"math"
	"testing"
)

func TestToSemitones(t *testing.T) {
	ranges := []int{1, 2, 3, 12, 24, 48, 96}

	for _, r := range ranges {
		if got := ToSemitones(BendCenter, r); got != 0 {
			t.Errorf("ToSemitones(center, %d) = %v, want 0", r, got)
		}
		if got := ToSemitones(BendMin, r); math.Abs(got+float64(r)) > 1e-9 {
			t.Errorf("ToSemitones(0, %d) = %v, want %d", r, got, -r)
		}
		if got := ToSemitones(BendMax, r); math.Abs(got-float64(r)) > 1e-9 {
			t.Errorf("ToSemitones(16383, %d) = %v, want %d", r, got, r)
		}
		below := ToSemitones(BendMax-1, r)
		if below >= float64(r) || math.Abs(below-float64(r)*8190/8191) > 1e-9 {
			t.Errorf("ToSemitones(16382, %d) = %v, want %v", r, below, float64(r)*8190/8191)
		}
	}
}

func TestToSemitonesMonotonic(t *testing.T) {
	prev := ToSemitones(0, 48)
	for raw := uint16(1); raw <= BendMax; raw++ {
		cur := ToSemitones(raw, 48)
		if cur <= prev {
			t.Fatalf("ToSemitones not increasing at %d: %v <= %v", raw, cur, prev)
		}
		prev = cur
	}
}

func TestBentNote(t *testing.T) {
	tests := []struct {
		name string
		note uint8
		raw  uint16
		rng  int
		want int
	}{
		{"center", 60, BendCenter, 48, 60},
		{"full down", 60, BendMin, 48, 12},
		{"full up", 60, BendMax, 2, 62},
		{"half step up", 60, BendCenter + 4096, 2, 61},
		{"rounds to nearest", 60, BendCenter + 1000, 12, 61},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BentNote(tt.note, tt.raw, tt.rng); got != tt.want {
				t.Errorf("BentNote(%d, %d, %d) = %d, want %d", tt.note, tt.raw, tt.rng, got, tt.want)
			}
		})
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		note int
		want string
	}{
		{0, "C-1"},
		{9, "A-1"},
		{21, "A0"},
		{60, "C4"},
		{61, "C#4"},
		{108, "C8"},
		{127, "G9"},
		{-1, ""},
		{128, ""},
	}

	for _, tt := range tests {
		if got := NoteName(tt.note); got != tt.want {
			t.Errorf("NoteName(%d) = %q, want %q", tt.note, got, tt.want)
		}
	}
}
