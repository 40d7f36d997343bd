package scheduling

import (
	"fmt"
	"time"
)

const slotLabelLayout = "Monday Jan 2, 3:04 PM"

func parseInstant(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

func localize(raw, tz string) (time.Time, error) {
	t, err := parseInstant(raw)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduling: load timezone %q: %w", tz, err)
	}
	return t.In(loc), nil
}

// FormatSlotLabel renders raw (RFC3339) as "Tuesday Mar 3, 9:00 AM (tz)" in
// tz. If either value cannot be interpreted the raw string is returned.
func FormatSlotLabel(raw, tz string) string {
	local, err := localize(raw, tz)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%s (%s)", local.Format(slotLabelLayout), tz)
}

// SlotMatchesWindow reports whether raw's local hour in tz lies in window.
// A nil window matches everything, and so does any slot that cannot be
// localized.
func SlotMatchesWindow(raw, tz string, window *Window) bool {
	if window == nil {
		return true
	}
	local, err := localize(raw, tz)
	if err != nil {
		return true
	}
	return window.Contains(local.Hour())
}
