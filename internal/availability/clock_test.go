package availability

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"ab:cd", 0, true},
		{"09-30", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidClock) {
				t.Errorf("ParseClock(%q): expected ErrInvalidClock, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Errorf("FormatClock(570) = %s", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %s", got)
	}
}

func TestISOWeekday(t *testing.T) {
	for d := 2; d <= 8; d++ {
		day := time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
		if got := ISOWeekday(day); got != d-1 {
			t.Errorf("%s: expected %d, got %d", day.Weekday(), d-1, got)
		}
	}
}

func TestValidateWindow(t *testing.T) {
	if err := ValidateWindow(Window{Weekday: 3, Start: "08:00", End: "12:00"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := []Window{
		{Weekday: 0, Start: "08:00", End: "12:00"},
		{Weekday: 8, Start: "08:00", End: "12:00"},
		{Weekday: 1, Start: "12:00", End: "12:00"},
		{Weekday: 1, Start: "8:00", End: "12:00"},
	}
	for _, w := range bad {
		if err := ValidateWindow(w); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("%+v: expected ErrInvalidWindow, got %v", w, err)
		}
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	half := 30 * time.Minute
	if Overlaps(base, base.Add(half), base.Add(half), base.Add(2*half)) {
		t.Error("adjacent intervals must not overlap")
	}
	if !Overlaps(base, base.Add(2*half), base.Add(10*time.Minute), base.Add(20*time.Minute)) {
		t.Error("containing interval must overlap")
	}
}
