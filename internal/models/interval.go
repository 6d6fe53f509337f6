package models

import (
	"time"
)

// IntervalStatus represents whether an occupancy interval is still open
type IntervalStatus int

const (
	IntervalStatusOpen IntervalStatus = iota
	IntervalStatusClosed
)

// String returns the string representation of an interval status
func (s IntervalStatus) String() string {
	return [...]string{"open", "closed"}[s]
}

// OccupancyRecord is a room-level occupancy interval. Records are append-only
// and ordered by StartAt within a room; at most one is open per room under
// normal operation.
type OccupancyRecord struct {
	ID           string         `json:"id"`
	TeamID       string         `json:"team_id"`
	Title        string         `json:"title"`
	AttendeeName string         `json:"attendee_name"`
	UserEmail    string         `json:"user_email"`
	StartAt      time.Time      `json:"start_at"`
	EndAt        time.Time      `json:"end_at,omitempty"` // zero while the interval is open
	Status       IntervalStatus `json:"status"`
}

// Open reports whether the interval has not been closed yet.
func (r *OccupancyRecord) Open() bool {
	return r.Status == IntervalStatusOpen && r.EndAt.IsZero()
}

// ParticipantUsageRecord is a per-participant occupancy interval within a
// room. Each participant may have at most one open record per room; closing
// must match on both title and participant identity.
type ParticipantUsageRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Participant string    `json:"participant"` // display name or email
	UserEmail   string    `json:"user_email"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at,omitempty"` // zero while the interval is open
}

// Open reports whether the interval has not been closed yet.
func (r *ParticipantUsageRecord) Open() bool {
	return r.EndAt.IsZero()
}
