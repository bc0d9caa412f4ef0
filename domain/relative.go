package domain

import (
	"fmt"
	"time"
)

const (
	minutesInHour  = 60
	minutesInDay   = 24 * minutesInHour
	minutesInWeek  = 7 * minutesInDay
	minutesInMonth = 30 * minutesInDay
)

// RelativeLabel renders the distance between a past instant and now as a
// human-readable label: "now" under a minute, then whole minutes, hours,
// days, weeks and months, always rounded down.
func RelativeLabel(past, now time.Time) string {
	minutes := now.Sub(past).Minutes()
	if minutes < 0 {
		minutes = -minutes
	}

	switch {
	case minutes < 1:
		return "now"
	case minutes < minutesInHour:
		return relativeUnits(int(minutes), "minute")
	case minutes < minutesInDay:
		return relativeUnits(int(minutes)/minutesInHour, "hour")
	case minutes < minutesInWeek:
		return relativeUnits(int(minutes)/minutesInDay, "day")
	case minutes < minutesInMonth:
		return relativeUnits(int(minutes)/minutesInWeek, "week")
	default:
		return relativeUnits(int(minutes)/minutesInMonth, "month")
	}
}

func relativeUnits(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
