package analytics

import "time"

// WeekCount is the number of calendar weeks in every trend.
const WeekCount = 4

// WeekWindow is a half-open calendar week [Start, End).
type WeekWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside [Start, End).
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func weekLabel(w WeekWindow) string {
	return w.Start.Format("Jan 2")
}

// WeekStart returns Monday 00:00 of the ISO week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// TrailingWeeks returns the current week and the WeekCount-1 weeks before it,
// ordered oldest to newest. Windows are contiguous and never overlap.
func TrailingWeeks(now time.Time) []WeekWindow {
	current := WeekStart(now)
	out := make([]WeekWindow, WeekCount)
	for i := range out {
		start := current.AddDate(0, 0, -7*(WeekCount-1-i))
		out[i] = WeekWindow{Start: start, End: start.AddDate(0, 0, 7)}
	}
	return out
}

func weekIndex(weeks []WeekWindow, t time.Time) int {
	for i, w := range weeks {
		if w.Contains(t) {
			return i
		}
	}
	return -1
}
