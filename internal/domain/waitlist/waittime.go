package waitlist

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const day = 24 * time.Hour

// InvalidDateError is returned when an added date cannot be parsed.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q", e.Value)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

// Clock returns the current time. Wait days are computed against it on
// every read and never stored.
type Clock func() time.Time

var addedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseAddedDate parses an ISO-8601 timestamp or calendar date.
func ParseAddedDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, &InvalidDateError{Value: s, Err: fmt.Errorf("empty value")}
	}
	var lastErr error
	for _, layout := range addedDateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &InvalidDateError{Value: s, Err: lastErr}
}

// WaitDays returns the whole days between added and now, rounded up. The
// difference is taken as an absolute value, so an added date in the future
// also yields a positive count.
func WaitDays(added, now time.Time) int {
	diff := now.Sub(added)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// WaitDaysFromString parses added and returns its wait days relative to now.
func WaitDaysFromString(added string, now time.Time) (int, error) {
	t, err := ParseAddedDate(added)
	if err != nil {
		return 0, err
	}
	return WaitDays(t, now), nil
}

// WaitDaysAt returns a wait-day function bound to now, the shape the CSV
// export and the ordering engine take.
func WaitDaysAt(now time.Time) func(*Patient) int {
	return func(p *Patient) int {
		return WaitDays(p.AddedDate, now)
	}
}
