package model

import "time"

// AvailabilityStatus defines the recognized self-reported statuses.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusTentative   AvailabilityStatus = "tentative"
	StatusUnavailable AvailabilityStatus = "unavailable"
)

// Availability represents a member's self-reported status for a time range.
// For a fixed member, stored intervals never overlap: writing an interval
// replaces every existing interval it overlaps.
type Availability struct {
	ID         string             `gorm:"primaryKey;size:36" json:"id"`
	MemberName string             `gorm:"size:64;not null;index" json:"memberName"`
	Start      time.Time          `gorm:"column:starts_at;not null;index" json:"start"`
	End        time.Time          `gorm:"column:ends_at;not null;index" json:"end"`
	Status     AvailabilityStatus `gorm:"size:16;not null" json:"status"`
	UpdatedAt  time.Time          `gorm:"not null" json:"updatedAt"`
}
