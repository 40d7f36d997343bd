package scheduling

import (
	"regexp"
	"strconv"
)

var windowPattern = regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})`)

// Window is a half-open range of local hours, [Start, End).
type Window struct {
	Start int
	End   int
}

// Contains reports whether hour (0-23) falls inside the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.Start && hour < w.End
}

// ParseWindow finds the first "H-H" pair in text, e.g. "9-5" or "09 - 17".
// When the end is not after the start and the start is a morning hour, the
// end is read as PM ("9-5" is 9:00-17:00). Starts of 12 or later are never
// corrected. Out-of-range hours yield false.
func ParseWindow(text string) (Window, bool) {
	m := windowPattern.FindStringSubmatch(text)
	if m == nil {
		return Window{}, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return Window{}, false
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return Window{}, false
	}

	if end <= start && start < 12 {
		end += 12
	}
	if start < 0 || start > 23 || end < 1 || end > 24 {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}
