package walkthrough

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// DiscoverEmail finds the visitor's address: the answer keyed "email", then
// an answer whose question mentions email, then the first answer containing
// an address. Only text that looks like an address is returned.
func DiscoverEmail(answers []Answer) string {
	for _, a := range answers {
		if strings.EqualFold(strings.TrimSpace(a.Key), "email") {
			if addr := emailPattern.FindString(a.Answer); addr != "" {
				return addr
			}
		}
	}
	for _, a := range answers {
		if strings.Contains(strings.ToLower(a.Question), "email") {
			if addr := emailPattern.FindString(a.Answer); addr != "" {
				return addr
			}
		}
	}
	for _, a := range answers {
		if addr := emailPattern.FindString(a.Answer); addr != "" {
			return addr
		}
	}
	return ""
}
