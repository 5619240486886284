package marketplace

import "time"

// Window is a half-open [Start, End) time slice of a feed
type Window struct {
	Start time.Time
	End   time.Time
}

// Windows slices [from, to) into consecutive spans of at most span each.
// The marketplace rejects queries over wide ranges, so feeds are fetched
// window by window.
func Windows(from, to time.Time, span time.Duration) []Window {
	if span <= 0 || !from.Before(to) {
		return nil
	}
	var windows []Window
	for start := from; start.Before(to); start = start.Add(span) {
		end := start.Add(span)
		if end.After(to) {
			end = to
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}
