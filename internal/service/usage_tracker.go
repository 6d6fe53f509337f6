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

// ParticipantUsageTracker keeps the per-participant occupancy intervals
// within a room. Unlike the room-level ledger, several participants can hold
// open intervals in the same room at once, so closing must match on both
// room and participant identity.
type ParticipantUsageTracker struct {
	repo repository.Repository
	ttl  time.Duration
}

// NewParticipantUsageTracker creates a tracker over the given repository
func NewParticipantUsageTracker(repo repository.Repository, ttl time.Duration) *ParticipantUsageTracker {
	return &ParticipantUsageTracker{
		repo: repo,
		ttl:  ttl,
	}
}

// OpenInterval opens and persists a usage interval for a participant
func (t *ParticipantUsageTracker) OpenInterval(ctx context.Context, title, participant, userEmail string) (*models.ParticipantUsageRecord, error) {
	rec := &models.ParticipantUsageRecord{
		ID:          uuid.NewString(),
		Title:       title,
		Participant: participant,
		UserEmail:   userEmail,
		StartAt:     time.Now(),
	}
	if err := t.repo.SaveUsage(ctx, rec, t.ttl); err != nil {
		return nil, fmt.Errorf("failed to open usage interval: %w", err)
	}
	return rec, nil
}

// CloseLatestOpenForParticipant closes the participant's most recent open
// interval in the room. The scan checks identity on every candidate: the
// newest record in the room may belong to a different, still-active
// participant, and that interval must be left alone. No matching open record
// is a logged no-op, so duplicate end-of-session calls never fail.
func (t *ParticipantUsageTracker) CloseLatestOpenForParticipant(ctx context.Context, title, participant string) error {
	records, err := t.repo.LatestUsage(ctx, title, 0)
	if err != nil {
		return fmt.Errorf("failed to look up usage for room: %w", err)
	}

	for _, rec := range records {
		if rec.Participant != participant || !rec.Open() {
			continue
		}

		rec.EndAt = time.Now()
		if err := t.repo.SaveUsage(ctx, rec, t.ttl); err != nil {
			return fmt.Errorf("failed to close usage interval: %w", err)
		}
		return nil
	}

	log.Printf("No matching open usage record for %s in room %s",
		utils.SanitizeLogString(participant), utils.SanitizeLogString(title))
	return nil
}
