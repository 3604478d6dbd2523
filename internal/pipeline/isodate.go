package pipeline

import (
	"strings"
	"time"
)

// completeDate parses a strict YYYY-MM-DD date, the only form StudyDay
// can compute against (spec §4.4: "if both dates are complete").
func completeDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if len(s) < 10 {
		return time.Time{}, false
	}
	datePart := s[:10]
	t, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return time.Time{}, false
	}
	// A bare date must be exactly 10 chars; anything trailing a
	// datetime's date portion still counts as complete for StudyDay
	// purposes, since only the calendar date participates in the diff.
	if len(s) > 10 && s[10] != 'T' {
		return time.Time{}, false
	}
	return t, true
}

// studyDayOffset computes spec §4.4's StudyDay rule: date - ref + 1 when
// date >= ref, else date - ref. There is no zero-valued study day.
func studyDayOffset(ref, date time.Time) int {
	days := int(date.Sub(ref).Hours() / 24)
	if days >= 0 {
		return days + 1
	}
	return days
}
