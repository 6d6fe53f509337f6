// Package models defines the data types for room sessions and occupancy accounting
package models

import (
	"time"
)

// MeetingRecord describes the live provider meeting for a room title.
// There is at most one per title; an expired record is treated as absent.
type MeetingRecord struct {
	Title     string    `json:"title"`
	TeamID    string    `json:"team_id"`
	MeetingID string    `json:"meeting_id"` // provider-assigned meeting id
	Meeting   []byte    `json:"meeting"`    // opaque provider meeting descriptor
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record's expiry has passed at the given time.
func (r *MeetingRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// AttendeeRecord maps a provider-assigned attendee id back to a display name.
// Keyed by (title, attendee id); written once on admission and read-only after.
type AttendeeRecord struct {
	Title       string    `json:"title"`
	AttendeeID  string    `json:"attendee_id"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}
