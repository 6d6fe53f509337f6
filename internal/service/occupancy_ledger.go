package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/navikt/huddle/internal/models"
	"github.com/navikt/huddle/internal/repository"
	"github.com/navikt/huddle/internal/utils"
)

// OccupancyLedger keeps the append-only room-level occupancy intervals.
// It tracks room-wide start/end, not per-attendee occupancy; see
// ParticipantUsageTracker for the per-participant intervals.
type OccupancyLedger struct {
	repo repository.Repository
	ttl  time.Duration
}

// NewOccupancyLedger creates a ledger over the given repository
func NewOccupancyLedger(repo repository.Repository, ttl time.Duration) *OccupancyLedger {
	return &OccupancyLedger{
		repo: repo,
		ttl:  ttl,
	}
}

// NewInterval builds an open interval without persisting it. The session
// coordinator uses this to pair the interval with the meeting record in a
// single atomic write.
func (l *OccupancyLedger) NewInterval(teamID, title, attendeeName, userEmail string) *models.OccupancyRecord {
	return &models.OccupancyRecord{
		ID:           uuid.NewString(),
		TeamID:       teamID,
		Title:        title,
		AttendeeName: attendeeName,
		UserEmail:    userEmail,
		StartAt:      time.Now(),
		Status:       models.IntervalStatusOpen,
	}
}

// OpenInterval opens and persists a room-level occupancy interval
func (l *OccupancyLedger) OpenInterval(ctx context.Context, teamID, title, attendeeName, userEmail string) (*models.OccupancyRecord, error) {
	rec := l.NewInterval(teamID, title, attendeeName, userEmail)
	if err := l.repo.SaveOccupancy(ctx, rec, l.ttl); err != nil {
		return nil, fmt.Errorf("failed to open occupancy interval: %w", err)
	}
	return rec, nil
}

// CloseLatestOpenForRoom closes the room's most recent occupancy interval.
// The lookup is keyed by room only: the room-level ledger has at most one
// open interval at a time. A room with no interval, or whose latest interval
// is already closed, is a logged no-op.
func (l *OccupancyLedger) CloseLatestOpenForRoom(ctx context.Context, teamID, title string) error {
	records, err := l.repo.LatestOccupancy(ctx, teamID, title, 1)
	if err != nil {
		return fmt.Errorf("failed to look up occupancy for room: %w", err)
	}

	if len(records) == 0 {
		log.Printf("No occupancy interval to close for room %s", utils.SanitizeLogString(title))
		return nil
	}

	rec := records[0]
	if !rec.Open() {
		log.Printf("Latest occupancy interval for room %s already closed", utils.SanitizeLogString(title))
		return nil
	}

	rec.EndAt = time.Now()
	rec.Status = models.IntervalStatusClosed
	if err := l.repo.SaveOccupancy(ctx, rec, l.ttl); err != nil {
		return fmt.Errorf("failed to close occupancy interval: %w", err)
	}

	return nil
}
