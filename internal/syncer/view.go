package syncer

import (
	"time"

	"bandsync/internal/model"
	"bandsync/internal/transport"
)

// View is the local snapshot of server state, plus any optimistic values not
// yet confirmed. Merges replace it wholesale; it is never partially updated.
type View struct {
	Events       []model.Event
	Availability []model.Availability
}

// Clone deep-copies the view so callers can hold it without racing merges.
func (v View) Clone() View {
	return View{
		Events:       append([]model.Event{}, v.Events...),
		Availability: append([]model.Availability{}, v.Availability...),
	}
}

// MutationKind identifies which local-view change a mutation carries.
type MutationKind string

const (
	MutationEventCreate        MutationKind = "event-create"
	MutationEventDelete        MutationKind = "event-delete"
	MutationAvailabilityUpsert MutationKind = "availability-upsert"
)

// Mutation is a proposed change applied optimistically before the server
// confirms it.
type Mutation struct {
	Kind    MutationKind
	Event   transport.EventDraft
	EventID string
	Avail   transport.AvailabilityDraft
}

// apply projects a mutation onto the view the same way the server will, so
// the optimistic state matches the next fetch.
func (v *View) apply(m Mutation, appliedAt time.Time) {
	switch m.Kind {
	case MutationEventCreate:
		v.Events = append(v.Events, model.Event{
			ID:        "optimistic-" + m.Event.RequestID,
			Title:     m.Event.Title,
			Kind:      m.Event.Kind,
			Start:     m.Event.Start,
			End:       m.Event.End,
			CreatedBy: m.Event.CreatedBy,
			CreatedAt: appliedAt,
		})
	case MutationEventDelete:
		kept := v.Events[:0]
		for _, e := range v.Events {
			if e.ID != m.EventID {
				kept = append(kept, e)
			}
		}
		v.Events = kept
	case MutationAvailabilityUpsert:
		// Mirror the server's replace-on-overlap semantics for the member.
		kept := v.Availability[:0]
		for _, a := range v.Availability {
			if a.MemberName == m.Avail.MemberName && overlaps(a.Start, a.End, m.Avail.Start, m.Avail.End) {
				continue
			}
			kept = append(kept, a)
		}
		v.Availability = append(kept, model.Availability{
			ID:         "optimistic",
			MemberName: m.Avail.MemberName,
			Start:      m.Avail.Start,
			End:        m.Avail.End,
			Status:     m.Avail.Status,
			UpdatedAt:  appliedAt,
		})
	}
}
