// Package deadline turns the user's "dd/mm/yyyy[ HH:MM]" strings into
// epoch seconds. Resolution uses the local zone at parse time and does not
// follow later daylight-saving shifts.
package deadline

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Layout accepts one or two digit day, month and hour.
	Layout = "2/1/2006 15:04"

	defaultTime = "00:00"

	// Horizon is the furthest a deadline may be from now: 100 years of 365 days.
	Horizon = 100 * 365 * 24 * time.Hour
)

// FormatError is returned when neither the full layout nor the date-only
// fallback matches.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to parse date %q, expected dd/mm/yyyy or dd/mm/yyyy HH:MM: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// PastError is returned when the deadline is not strictly after now.
type PastError struct {
	Deadline time.Time
	Now      time.Time
}

func (e *PastError) Error() string {
	return fmt.Sprintf("deadline %s must be in the future (now %s)",
		e.Deadline.Format(Layout), e.Now.Format(Layout))
}

// TooFarError is returned when the deadline lies beyond Horizon.
type TooFarError struct {
	Deadline time.Time
	Limit    time.Time
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("deadline %s is more than 100 years away, enter a date before %s",
		e.Deadline.Format(Layout), e.Limit.Format(Layout))
}

// AmbiguousTimeError is returned for wall-clock times skipped or repeated by
// a daylight-saving transition.
type AmbiguousTimeError struct {
	Input    string
	Location string
	Missing  bool
}

func (e *AmbiguousTimeError) Error() string {
	if e.Missing {
		return fmt.Sprintf("local time %q does not exist in %s", e.Input, e.Location)
	}
	return fmt.Sprintf("local time %q is ambiguous in %s", e.Input, e.Location)
}

// Parse resolves input in time.Local and validates it against now.
func Parse(input string, now time.Time) (uint64, error) {
	return ParseIn(input, now, time.Local)
}

// ParseIn is Parse for an explicit location.
func ParseIn(input string, now time.Time, loc *time.Location) (uint64, error) {
	s := strings.TrimSpace(input)

	t, err := resolve(s, loc)
	if err != nil {
		if _, ok := err.(*AmbiguousTimeError); ok {
			return 0, err
		}
		var fallbackErr error
		t, fallbackErr = resolve(s+" "+defaultTime, loc)
		if fallbackErr != nil {
			if _, ok := fallbackErr.(*AmbiguousTimeError); ok {
				return 0, fallbackErr
			}
			return 0, &FormatError{Input: s, Err: err}
		}
	}

	if !t.After(now) {
		return 0, &PastError{Deadline: t, Now: now}
	}
	limit := now.Add(Horizon)
	if t.After(limit) {
		return 0, &TooFarError{Deadline: t, Limit: limit}
	}
	return uint64(t.Unix()), nil
}

// resolve parses s in loc and rejects wall-clock times that a zone
// transition skips or repeats.
func resolve(s string, loc *time.Location) (time.Time, error) {
	wall, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(Layout, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !sameWall(t, wall) {
		return time.Time{}, &AmbiguousTimeError{Input: s, Location: loc.String(), Missing: true}
	}

	// Any offset in effect a day either side may also map onto this wall time.
	for _, probe := range []time.Time{t.Add(-24 * time.Hour), t.Add(24 * time.Hour)} {
		_, offset := probe.Zone()
		candidate := time.Unix(wall.Unix()-int64(offset), 0).In(loc)
		if sameWall(candidate, wall) && !candidate.Equal(t) {
			return time.Time{}, &AmbiguousTimeError{Input: s, Location: loc.String()}
		}
	}
	return t, nil
}

func sameWall(t, wall time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 && t.Hour() == wall.Hour() && t.Minute() == wall.Minute()
}
