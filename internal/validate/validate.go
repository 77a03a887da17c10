package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"bandsync/internal/model"
)

// Reason is a machine-distinguishable cause for a validation failure.
type Reason string

const (
	ReasonMissingField Reason = "missing-field"
	ReasonBadEnum      Reason = "bad-enum"
	ReasonBadRange     Reason = "bad-range"
	ReasonOutOfWindow  Reason = "out-of-window"
	ReasonBadContent   Reason = "bad-content"
)

// Error is a field-level validation failure. It is terminal: callers must not
// retry the operation that produced it.
type Error struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Reason)
}

// unsafeRe matches a small denylist of markup patterns that are never valid in
// user-supplied names or titles.
var unsafeRe = regexp.MustCompile(`(?i)(<script|javascript:|onerror=|onload=)`)

// Text checks that value, after trimming, has a length within [min, max]
// characters and contains no denylisted markup. Bounds are counted in runes,
// not bytes, so multibyte names get the full budget.
func Text(field, value string, min, max int) error {
	trimmed := strings.TrimSpace(value)
	switch n := utf8.RuneCountInString(trimmed); {
	case n < min:
		return &Error{
			Field:   field,
			Reason:  ReasonMissingField,
			Message: fmt.Sprintf("must be at least %d character(s) after trimming", min),
		}
	case n > max:
		return &Error{
			Field:   field,
			Reason:  ReasonBadRange,
			Message: fmt.Sprintf("must be at most %d characters after trimming", max),
		}
	}
	if unsafeRe.MatchString(trimmed) {
		return &Error{Field: field, Reason: ReasonBadContent, Message: "contains unsafe markup"}
	}
	return nil
}

// EventKind checks membership in the event kind enum.
func EventKind(kind model.EventKind) error {
	switch kind {
	case model.KindLive, model.KindRehearsal, model.KindOther:
		return nil
	}
	return &Error{Field: "kind", Reason: ReasonBadEnum, Message: fmt.Sprintf("unknown kind %q", kind)}
}

// AvailabilityStatus checks membership in the availability status enum.
func AvailabilityStatus(status model.AvailabilityStatus) error {
	switch status {
	case model.StatusAvailable, model.StatusTentative, model.StatusUnavailable:
		return nil
	}
	return &Error{Field: "status", Reason: ReasonBadEnum, Message: fmt.Sprintf("unknown status %q", status)}
}

// TimeRange checks that both instants are set and that start precedes end.
func TimeRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &Error{Field: "start/end", Reason: ReasonBadRange, Message: "start and end must be valid instants"}
	}
	if !start.Before(end) {
		return &Error{Field: "start/end", Reason: ReasonBadRange, Message: "start must be before end"}
	}
	return nil
}

// Event runs every check that applies to an event create and returns the
// first failure.
func Event(title string, kind model.EventKind, start, end time.Time, createdBy string, now time.Time) error {
	if err := Text("title", title, 1, 100); err != nil {
		return err
	}
	if err := EventKind(kind); err != nil {
		return err
	}
	if err := Text("createdBy", createdBy, 1, 50); err != nil {
		return err
	}
	if err := TimeRange(start, end); err != nil {
		return err
	}
	return InWindow(start, now)
}

// Availability runs every check that applies to an availability upsert and
// returns the first failure.
func Availability(memberName string, start, end time.Time, status model.AvailabilityStatus, now time.Time) error {
	if err := Text("memberName", memberName, 1, 50); err != nil {
		return err
	}
	if err := AvailabilityStatus(status); err != nil {
		return err
	}
	if err := TimeRange(start, end); err != nil {
		return err
	}
	return InWindow(start, now)
}
