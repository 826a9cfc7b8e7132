package model

import "testing"

func TestValidDate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2026-03-14", true},
		{"2026-02-29", false},
		{"2024-02-29", true},
		{"14-03-2026", false},
		{"2026-3-14", false},
		{"", false},
		{"2026-03-14T10:00", false},
	}
	for _, c := range cases {
		if got := ValidDate(c.in); got != c.want {
			t.Errorf("ValidDate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestValidClock(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"09:30", true},
		{"00:00", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"09:60", false},
		{"09:30:00", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidClock(c.in); got != c.want {
			t.Errorf("ValidClock(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClockBefore(t *testing.T) {
	if !ClockBefore("09:00", "09:30") {
		t.Fatal("09:00 should sort before 09:30")
	}
	if ClockBefore("10:00", "09:30") {
		t.Fatal("10:00 should not sort before 09:30")
	}
	if ClockBefore("09:30", "09:30") {
		t.Fatal("equal clocks are not strictly before")
	}
}
