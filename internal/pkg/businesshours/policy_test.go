package businesshours

import (
	"testing"
	"time"
)

func TestDuring(t *testing.T) {
	// 2025-06-02 is a Monday, 2025-06-07 a Saturday, 2025-06-08 a Sunday.
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"monday morning", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), true},
		{"monday before open", time.Date(2025, 6, 2, 8, 59, 0, 0, time.UTC), false},
		{"monday last hour", time.Date(2025, 6, 2, 17, 59, 0, 0, time.UTC), true},
		{"monday at close", time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC), false},
		{"friday afternoon", time.Date(2025, 6, 6, 14, 30, 0, 0, time.UTC), true},
		{"friday night", time.Date(2025, 6, 6, 22, 0, 0, 0, time.UTC), false},
		{"saturday morning", time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC), true},
		{"saturday at noon", time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC), false},
		{"saturday afternoon", time.Date(2025, 6, 7, 15, 0, 0, 0, time.UTC), false},
		{"sunday morning", time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC), false},
		{"sunday any hour", time.Date(2025, 6, 8, 17, 0, 0, 0, time.UTC), false},
		{"weekday 2am", time.Date(2025, 6, 3, 2, 0, 0, 0, time.UTC), false},
		{"zero time", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := During(tt.ts, time.UTC); got != tt.want {
				t.Errorf("During(%v) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestDuringRespectsLocation(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// 2025-06-02 21:00 UTC is 18:00 in Sao Paulo (UTC-3), already closed there.
	ts := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	if During(ts, sp) {
		t.Errorf("During(%v, Sao_Paulo) = true, want false", ts)
	}
	// The same instant evaluated in UTC is still outside hours (21:00).
	if During(ts, time.UTC) {
		t.Errorf("During(%v, UTC) = true, want false", ts)
	}
	// 2025-06-02 13:00 UTC is 10:00 in Sao Paulo, open there.
	ts = time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	if !During(ts, sp) {
		t.Errorf("During(%v, Sao_Paulo) = false, want true", ts)
	}
}

func TestDuringNilLocation(t *testing.T) {
	// A nil location must not panic; it evaluates in the timestamp's own zone.
	ts := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if !During(ts, nil) {
		t.Errorf("During(%v, nil) = false, want true", ts)
	}
}
