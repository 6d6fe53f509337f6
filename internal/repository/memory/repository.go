// Package memory provides an in-memory implementation of the repository interface
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/navikt/huddle/internal/models"
)

// Repository implements the repository interface with in-memory storage.
// Intended for tests and local runs without a Redis instance; TTLs are
// honored by checking expiry on read rather than by eviction.
type Repository struct {
	meetings  map[string]*models.MeetingRecord            // keyed by title
	attendees map[string]*models.AttendeeRecord           // keyed by title + "/" + attendee id
	occupancy map[string][]*models.OccupancyRecord        // keyed by team id + "/" + title
	usage     map[string][]*models.ParticipantUsageRecord // keyed by title
	mu        sync.RWMutex
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		meetings:  make(map[string]*models.MeetingRecord),
		attendees: make(map[string]*models.AttendeeRecord),
		occupancy: make(map[string][]*models.OccupancyRecord),
		usage:     make(map[string][]*models.ParticipantUsageRecord),
	}
}

func attendeeKey(title, attendeeID string) string {
	return title + "/" + attendeeID
}

func occupancyKey(teamID, title string) string {
	return teamID + "/" + title
}

// GetMeetingRecord retrieves the meeting record for a room title.
// Expired records are reported as absent.
func (r *Repository) GetMeetingRecord(ctx context.Context, title string) (*models.MeetingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.meetings[title]
	if !ok || rec.Expired(time.Now()) {
		return nil, models.ErrNotFound
	}

	copied := *rec
	return &copied, nil
}

// CreateSession writes the meeting record and its opening occupancy interval
// under a single lock acquisition, mirroring the atomic multi-record write of
// the Redis implementation.
func (r *Repository) CreateSession(ctx context.Context, rec *models.MeetingRecord, occ *models.OccupancyRecord, ttl, ledgerTTL time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting := *rec
	if meeting.ExpiresAt.IsZero() && ttl > 0 {
		meeting.ExpiresAt = time.Now().Add(ttl)
	}
	r.meetings[rec.Title] = &meeting

	interval := *occ
	key := occupancyKey(occ.TeamID, occ.Title)
	r.occupancy[key] = append(r.occupancy[key], &interval)

	return nil
}

// DeleteMeetingRecord removes the meeting record for a title.
// Deleting an absent record is a no-op.
func (r *Repository) DeleteMeetingRecord(ctx context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.meetings, title)
	return nil
}

// SaveAttendee persists an attendee record
func (r *Repository) SaveAttendee(ctx context.Context, rec *models.AttendeeRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *rec
	if copied.ExpiresAt.IsZero() && ttl > 0 {
		copied.ExpiresAt = time.Now().Add(ttl)
	}
	r.attendees[attendeeKey(rec.Title, rec.AttendeeID)] = &copied

	return nil
}

// GetAttendee retrieves an attendee record by title and provider attendee id
func (r *Repository) GetAttendee(ctx context.Context, title, attendeeID string) (*models.AttendeeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.attendees[attendeeKey(title, attendeeID)]
	if !ok || (!rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt)) {
		return nil, models.ErrNotFound
	}

	copied := *rec
	return &copied, nil
}

// SaveOccupancy inserts or updates a room-level occupancy interval by record id
func (r *Repository) SaveOccupancy(ctx context.Context, rec *models.OccupancyRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *rec
	key := occupancyKey(rec.TeamID, rec.Title)
	for i, existing := range r.occupancy[key] {
		if existing.ID == rec.ID {
			r.occupancy[key][i] = &copied
			return nil
		}
	}
	r.occupancy[key] = append(r.occupancy[key], &copied)

	return nil
}

// LatestOccupancy returns a room's occupancy intervals ordered by start time
// descending. A limit <= 0 returns all records.
func (r *Repository) LatestOccupancy(ctx context.Context, teamID, title string, limit int) ([]*models.OccupancyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.occupancy[occupancyKey(teamID, title)]
	records := make([]*models.OccupancyRecord, 0, len(stored))
	for _, rec := range stored {
		copied := *rec
		records = append(records, &copied)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartAt.After(records[j].StartAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// SaveUsage inserts or updates a participant usage interval by record id
func (r *Repository) SaveUsage(ctx context.Context, rec *models.ParticipantUsageRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *rec
	for i, existing := range r.usage[rec.Title] {
		if existing.ID == rec.ID {
			r.usage[rec.Title][i] = &copied
			return nil
		}
	}
	r.usage[rec.Title] = append(r.usage[rec.Title], &copied)

	return nil
}

// LatestUsage returns a room's participant usage intervals ordered by start
// time descending. A limit <= 0 returns all records.
func (r *Repository) LatestUsage(ctx context.Context, title string, limit int) ([]*models.ParticipantUsageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.usage[title]
	records := make([]*models.ParticipantUsageRecord, 0, len(stored))
	for _, rec := range stored {
		copied := *rec
		records = append(records, &copied)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartAt.After(records[j].StartAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
