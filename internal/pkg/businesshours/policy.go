// Package businesshours decides whether a timestamp falls inside the firm's
// service hours. The rule is fixed: Monday to Friday 09:00-18:00, Saturday
// 09:00-12:00, never on Sunday.
package businesshours

import "time"

// During reports whether t falls inside business hours, evaluated in loc.
// A nil location falls back to the local timezone; the zero time is never
// inside business hours.
func During(t time.Time, loc *time.Location) bool {
	if t.IsZero() {
		return false
	}
	if loc != nil {
		t = t.In(loc)
	}

	hour := t.Hour()
	switch t.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return hour >= 9 && hour < 12
	default:
		return hour >= 9 && hour < 18
	}
}

// Now reports whether the current time is inside business hours in loc.
func Now(loc *time.Location) bool {
	return During(time.Now(), loc)
}
