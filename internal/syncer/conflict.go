package syncer

import (
	"time"

	"bandsync/internal/model"
)

// Conflict pairs one of the local actor's events with another member's event
// occupying an overlapping time range. Conflicts are advisory: both events
// persist and nothing is auto-resolved.
type Conflict struct {
	Mine   model.Event
	Theirs model.Event
}

// overlaps is the half-open interval test [start, end) used everywhere.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// detectConflicts compares the actor's events against everyone else's within
// one fetched snapshot. It does not see the actor's own pending creations.
func detectConflicts(events []model.Event, actor string) []Conflict {
	var mine, theirs []model.Event
	for _, e := range events {
		if e.CreatedBy == actor {
			mine = append(mine, e)
		} else {
			theirs = append(theirs, e)
		}
	}

	var conflicts []Conflict
	for _, m := range mine {
		for _, t := range theirs {
			if overlaps(m.Start, m.End, t.Start, t.End) {
				conflicts = append(conflicts, Conflict{Mine: m, Theirs: t})
			}
		}
	}
	return conflicts
}
