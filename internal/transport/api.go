package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"bandsync/internal/model"
)

// EventDraft is the body of POST /events. RequestID deduplicates retried
// creations after an ambiguous network failure; CreateEvent fills it in when
// the caller leaves it empty.
type EventDraft struct {
	Title     string          `json:"title"`
	Kind      model.EventKind `json:"kind"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	CreatedBy string          `json:"createdBy"`
	RequestID string          `json:"requestId"`
}

// AvailabilityDraft is the body of POST /availability.
type AvailabilityDraft struct {
	MemberName string                   `json:"memberName"`
	Start      time.Time                `json:"start"`
	End        time.Time                `json:"end"`
	Status     model.AvailabilityStatus `json:"status"`
}

func rangeQuery(endpoint string, start, end time.Time) string {
	q := url.Values{}
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	return fmt.Sprintf("%s?%s", endpoint, q.Encode())
}

// FetchEvents reads every event overlapping [start, end).
func (c *Client) FetchEvents(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	if err := c.Get(ctx, rangeQuery("/events", start, end), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchAvailability reads every availability record overlapping [start, end).
func (c *Client) FetchAvailability(ctx context.Context, start, end time.Time) ([]model.Availability, error) {
	var records []model.Availability
	if err := c.Get(ctx, rangeQuery("/availability", start, end), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateEvent submits a new event.
func (c *Client) CreateEvent(ctx context.Context, draft EventDraft) *Pending {
	if draft.RequestID == "" {
		draft.RequestID = uuid.NewString()
	}
	return c.Send(ctx, http.MethodPost, "/events", draft, nil)
}

// DeleteEvent removes an event on behalf of actor.
func (c *Client) DeleteEvent(ctx context.Context, id, actor string) *Pending {
	return c.Send(ctx, http.MethodDelete, "/events/"+id, nil, map[string]string{"X-Actor": actor})
}

// UpsertAvailability submits an availability interval, replacing whatever it
// overlaps server-side.
func (c *Client) UpsertAvailability(ctx context.Context, draft AvailabilityDraft) *Pending {
	return c.Send(ctx, http.MethodPost, "/availability", draft, nil)
}
