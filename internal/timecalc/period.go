package timecalc

import (
	"fmt"
	"time"
)

// TimePeriod is the largest unit FormatPeriod spells out.
type TimePeriod int

const (
	Seconds TimePeriod = iota
	Minutes
	Hours
	Days
)

// FormatPeriod renders d as "01d 02h 03m 04s". Units above largest are
// folded into largest, so 3 days with largest Hours read "72h 00m 00s".
// Leading empty units are dropped unless full is set.
func FormatPeriod(d time.Duration, largest TimePeriod, full bool) string {
	total := int64(d / time.Second)
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}

	days := total / 86400
	hours := total / 3600
	if largest != Hours {
		hours %= 24
	}
	minutes := total / 60
	if largest != Minutes {
		minutes %= 60
	}
	seconds := total
	if largest != Seconds {
		seconds %= 60
	}

	switch {
	case (days != 0 || full) && largest >= Days:
		return fmt.Sprintf("%s%02dd %02dh %02dm %02ds", sign, days, hours, minutes, seconds)
	case (hours != 0 || full) && largest >= Hours:
		return fmt.Sprintf("%s%02dh %02dm %02ds", sign, hours, minutes, seconds)
	case (minutes != 0 || full) && largest >= Minutes:
		return fmt.Sprintf("%s%02dm %02ds", sign, minutes, seconds)
	default:
		return fmt.Sprintf("%s%02ds", sign, seconds)
	}
}
