package model

import "time"

// EventKind defines the recognized kinds of a scheduled event.
type EventKind string

const (
	KindLive      EventKind = "live"
	KindRehearsal EventKind = "rehearsal"
	KindOther     EventKind = "other"
)

// Event represents a scheduled occurrence (performance, rehearsal, other).
// Events may freely share or overlap a time range.
type Event struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	Kind      EventKind `gorm:"size:16;not null" json:"kind"`
	Start     time.Time `gorm:"column:starts_at;not null;index" json:"start"`
	End       time.Time `gorm:"column:ends_at;not null;index" json:"end"`
	CreatedBy string    `gorm:"size:64;not null" json:"createdBy"`
	RequestID string    `gorm:"size:36;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
