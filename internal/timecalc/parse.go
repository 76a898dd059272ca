package timecalc

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned when a date-time or duration cannot be parsed.
var ErrInvalidFormat = errors.New("invalid format")

// unitSeconds maps the units accepted in temporal expressions to seconds.
// Months and years are fixed at 30 and 365 days.
var unitSeconds = map[string]int64{
	"second": 1, "seconds": 1,
	"minute": 60, "minutes": 60,
	"hour": 3600, "hours": 3600,
	"day": 86400, "days": 86400,
	"week": 604800, "weeks": 604800,
	"month": 2592000, "months": 2592000,
	"year": 31536000, "years": 31536000,
}

// absoluteLayouts carry their own zone.
var absoluteLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

// localLayouts are interpreted in the location of now.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime parses s relative to now. Accepted forms are RFC 2822,
// RFC 3339, "2006-01-02 15:04:05", a time of day "15:04:05" (today), the
// word "now", and the temporal expressions "in <n> <unit>" and
// "<n> <unit> ago". Extra layouts, such as the configured date and time
// format, are tried after the built-in ones. The result is truncated to
// whole seconds.
func ParseDateTime(s string, now time.Time, extra ...string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date-time", ErrInvalidFormat)
	}
	loc := now.Location()

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc).Truncate(time.Second), nil
		}
	}
	for _, layout := range append(slices.Clip(localLayouts), extra...) {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			if t.Year() == 0 {
				t = onDay(now, t)
			}
			return t.Truncate(time.Second), nil
		}
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return onDay(now, t), nil
		}
	}
	return parseTemporal(s, now)
}

// onDay moves the time of day of clock to the calendar day of now.
func onDay(now, clock time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
}

func parseTemporal(s string, now time.Time) (time.Time, error) {
	now = now.Truncate(time.Second)
	if s == "now" {
		return now, nil
	}

	parts := strings.Split(s, " ")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q is not a date-time or temporal expression", ErrInvalidFormat, s)
	}
	future := parts[0] == "in"
	if !future && parts[2] != "ago" {
		return time.Time{}, fmt.Errorf("%w: %q is not a date-time or temporal expression", ErrInvalidFormat, s)
	}

	number, unit := parts[0], parts[1]
	if future {
		number, unit = parts[1], parts[2]
	}
	factor, ok := unitSeconds[unit]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidFormat, unit)
	}
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q is not a positive number", ErrInvalidFormat, number)
	}

	d := time.Duration(n*factor) * time.Second
	if future {
		return now.Add(d), nil
	}
	return now.Add(-d), nil
}

// durationBounds are the exclusive upper bounds of the colon separated
// duration fields, from seconds upwards: seconds, minutes, hours, days.
var durationBounds = []int64{60, 60, 24, 7}

// durationFactors convert each colon separated field to seconds.
var durationFactors = []int64{1, 60, 3600, 86400, 604800}

// ParseDuration parses "[WW:][DD:][HH:]MM:SS" or "<n> <unit>". The leading
// field of the colon form is unbounded, so "90:00" is ninety minutes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		parts := strings.Fields(s)
		if len(parts) == 2 {
			n, err := strconv.ParseInt(parts[0], 10, 64)
			factor, ok := unitSeconds[parts[1]]
			if err == nil && ok && n >= 0 {
				return time.Duration(n*factor) * time.Second, nil
			}
		}
		return 0, fmt.Errorf("%w: %q is not a duration", ErrInvalidFormat, s)
	}

	fields := strings.Split(s, ":")
	if len(fields) > len(durationFactors) {
		return 0, fmt.Errorf("%w: %q has too many fields", ErrInvalidFormat, s)
	}
	var seconds int64
	for i := range fields {
		field := fields[len(fields)-1-i]
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidFormat, field)
		}
		leading := i == len(fields)-1
		if !leading && n >= durationBounds[i] {
			return 0, fmt.Errorf("%w: %d must be below %d", ErrInvalidFormat, n, durationBounds[i])
		}
		seconds += n * durationFactors[i]
	}
	return time.Duration(seconds) * time.Second, nil
}
