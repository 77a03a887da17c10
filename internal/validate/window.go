package validate

import "time"

// Window returns the bounded date range within which mutations are accepted:
// the start of the current local day through the end of the day two months
// later. Both bounds are inclusive. It is recomputed from now on every call.
func Window(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 2, 1).Add(-time.Nanosecond)
	return start, end
}

// InWindow checks that start falls inside the sync window derived from now.
func InWindow(start time.Time, now time.Time) error {
	winStart, winEnd := Window(now)
	if start.Before(winStart) || start.After(winEnd) {
		return &Error{
			Field:   "start",
			Reason:  ReasonOutOfWindow,
			Message: "start must fall within the next two months",
		}
	}
	return nil
}
