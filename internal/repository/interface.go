// Package repository defines interfaces for data storage
package repository

import (
	"context"
	"time"

	"github.com/navikt/huddle/internal/models"
)

// Repository defines the interface for storing session and occupancy data.
//
// Implementations must provide the guarantees the session workflow relies on:
// CreateSession writes the meeting record and its opening occupancy interval
// as one atomic unit, and the Latest* queries return records ordered by start
// time descending.
type Repository interface {
	// Meeting record operations. A record whose expiry has passed is treated
	// as absent even if still physically present.
	GetMeetingRecord(ctx context.Context, title string) (*models.MeetingRecord, error)
	CreateSession(ctx context.Context, rec *models.MeetingRecord, occ *models.OccupancyRecord, ttl, ledgerTTL time.Duration) error
	DeleteMeetingRecord(ctx context.Context, title string) error

	// Attendee records, keyed by (title, attendee id)
	SaveAttendee(ctx context.Context, rec *models.AttendeeRecord, ttl time.Duration) error
	GetAttendee(ctx context.Context, title, attendeeID string) (*models.AttendeeRecord, error)

	// Room-level occupancy intervals. SaveOccupancy inserts or updates by
	// record id; LatestOccupancy returns newest-first, limit<=0 means all.
	SaveOccupancy(ctx context.Context, rec *models.OccupancyRecord, ttl time.Duration) error
	LatestOccupancy(ctx context.Context, teamID, title string, limit int) ([]*models.OccupancyRecord, error)

	// Per-participant usage intervals, scoped by room title
	SaveUsage(ctx context.Context, rec *models.ParticipantUsageRecord, ttl time.Duration) error
	LatestUsage(ctx context.Context, title string, limit int) ([]*models.ParticipantUsageRecord, error)
}
