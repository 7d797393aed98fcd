package nutrition

import (
	"fmt"
	"time"
)

// DefaultDisplayHourOffset is how many hours into a new day the previous
// day's budget stays on screen.
const DefaultDisplayHourOffset = 3

// TimeWindow bounds a nutrition query. Both ends are inclusive.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow validates that start does not come after end.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if start.After(end) {
		return TimeWindow{}, fmt.Errorf("time window start %s is after end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DayWindow returns the window from the start of the current day to now.
// Entries stamped later than now are left out until the clock reaches them.
// The day starts at dayStartHour local time. Until displayHourOffset hours
// past that start the previous day is still shown, so late-night entries
// stay on yesterday's budget.
func DayWindow(now time.Time, dayStartHour, displayHourOffset int) TimeWindow {
	start := time.Date(now.Year(), now.Month(), now.Day(), dayStartHour, 0, 0, 0, now.Location())
	if now.Before(start.Add(time.Duration(displayHourOffset) * time.Hour)) {
		start = start.AddDate(0, 0, -1)
	}
	return TimeWindow{Start: start, End: now}
}

// LastHours returns the rolling window covering the last n hours.
func LastHours(now time.Time, n int) TimeWindow {
	if n < 0 {
		n = 0
	}
	return TimeWindow{Start: now.Add(-time.Duration(n) * time.Hour), End: now}
}

// WindowFunc picks the query window for a given instant.
type WindowFunc func(now time.Time) TimeWindow

// DayWindowFunc binds DayWindow's settings.
func DayWindowFunc(dayStartHour, displayHourOffset int) WindowFunc {
	return func(now time.Time) TimeWindow {
		return DayWindow(now, dayStartHour, displayHourOffset)
	}
}

// LastHoursFunc binds LastHours' window length.
func LastHoursFunc(n int) WindowFunc {
	return func(now time.Time) TimeWindow {
		return LastHours(now, n)
	}
}
