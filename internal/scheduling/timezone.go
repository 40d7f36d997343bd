package scheduling

import "strings"

// DefaultTimezone is used when the caller gives no timezone.
const DefaultTimezone = "America/Chicago"

var timezoneAliases = map[string]string{
	"est": "America/New_York",
	"edt": "America/New_York",
	"cst": "America/Chicago",
	"cdt": "America/Chicago",
	"mst": "America/Denver",
	"mdt": "America/Denver",
	"pst": "America/Los_Angeles",
	"pdt": "America/Los_Angeles",
}

// NormalizeTimezone maps US abbreviations to IANA names. Anything it does
// not recognise is returned as given, since it may already be an IANA name.
func NormalizeTimezone(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return DefaultTimezone
	}
	if zone, ok := timezoneAliases[strings.ToLower(tz)]; ok {
		return zone
	}
	return tz
}
