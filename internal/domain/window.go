package domain

import (
	"fmt"
	"time"
)

// DateFormat is the calendar-date layout used by the feed API and cache
// file names.
const DateFormat = "2006-01-02"

// Window is a contiguous inclusive date range, the unit of one feed request.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two dates, truncating both to UTC midnight.
func NewWindow(start, end time.Time) Window {
	return Window{Start: truncateToDate(start), End: truncateToDate(end)}
}

func (w Window) String() string {
	return w.Start.Format(DateFormat) + ".." + w.End.Format(DateFormat)
}

// Days returns the inclusive length of the window in days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// ChunkRange partitions [start, end] into consecutive inclusive windows of
// at most days days. Windows are contiguous, non-overlapping, and together
// cover the range exactly; the final window is truncated rather than
// overflowing. A range of Jan 1 to Jan 8 with 7-day windows yields
// [Jan 1, Jan 7] and [Jan 8, Jan 8].
func ChunkRange(start, end time.Time, days int) []Window {
	if days < 1 {
		days = 1
	}
	start = truncateToDate(start)
	end = truncateToDate(end)

	var windows []Window
	for current := start; !current.After(end); {
		chunkEnd := current.AddDate(0, 0, days-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		windows = append(windows, Window{Start: current, End: chunkEnd})
		current = chunkEnd.AddDate(0, 0, 1)
	}
	return windows
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
