package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// nextFromRRule evaluates an RFC 5545 RRULE string with the anchor as
// DTSTART and returns the first occurrence strictly after the anchor.
// ok is false when the rule does not parse or has no further
// occurrences.
func nextFromRRule(ruleStr string, anchor time.Time) (time.Time, bool) {
	rule, err := parseRRule(ruleStr, anchor)
	if err != nil {
		return time.Time{}, false
	}

	next := rule.After(anchor, false)
	if next.IsZero() || !next.After(anchor) {
		return time.Time{}, false
	}
	return next, true
}

func parseRRule(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, err
	}

	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}
