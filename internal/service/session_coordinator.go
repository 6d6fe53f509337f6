// Package service provides the business logic for room session lifecycle
// and occupancy accounting
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/navikt/huddle/internal/metrics"
	"github.com/navikt/huddle/internal/models"
	"github.com/navikt/huddle/internal/provider"
	"github.com/navikt/huddle/internal/repository"
	"github.com/navikt/huddle/internal/utils"
)

// JoinParams carries a request to join (and if needed create) a room session
type JoinParams struct {
	Title         string
	AttendeeName  string
	UserEmail     string
	TeamID        string
	MediaRegion   string
	EchoReduction bool
}

// JoinResult is returned to the caller after a successful admission
type JoinResult struct {
	Meeting  *provider.Meeting
	Attendee *provider.Attendee
}

// EndParams carries a request to leave or terminate a room session.
// TerminationAuthority is asserted by the caller; deriving it from role
// metadata is the identity layer's concern.
type EndParams struct {
	Title                string
	ParticipantName      string
	UserEmail            string
	TerminationAuthority bool
}

// CoordinatorConfig tunes the session coordinator
type CoordinatorConfig struct {
	// SessionTTL bounds meeting and attendee records
	SessionTTL time.Duration
	// LedgerTTL bounds occupancy and usage interval records
	LedgerTTL time.Duration
	// DefaultMediaRegion is used when the caller does not request a region
	DefaultMediaRegion string
}

// SessionCoordinator sequences the create-or-reuse-then-join workflow and
// room termination. It owns no durable state itself; all persistence goes
// through the injected repository, and all provider calls through the
// injected gateway.
type SessionCoordinator struct {
	gateway  provider.Gateway
	repo     repository.Repository
	ledger   *OccupancyLedger
	tracker  *ParticipantUsageTracker
	recorder metrics.Recorder
	cfg      CoordinatorConfig
}

// NewSessionCoordinator creates a coordinator with the given collaborators.
// A nil recorder disables metrics.
func NewSessionCoordinator(gateway provider.Gateway, repo repository.Repository, ledger *OccupancyLedger, tracker *ParticipantUsageTracker, recorder metrics.Recorder, cfg CoordinatorConfig) *SessionCoordinator {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &SessionCoordinator{
		gateway:  gateway,
		repo:     repo,
		ledger:   ledger,
		tracker:  tracker,
		recorder: recorder,
		cfg:      cfg,
	}
}

// NormalizeTitle canonicalizes a caller-supplied room title so every store
// key sees the same form
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Join admits a participant to the room's live session, creating the
// provider meeting first when no live session exists.
//
// A stale meeting record (one pointing at a deleted provider meeting) is
// removed and surfaced as ErrStaleSession; a retried join then creates a
// fresh session. Provider failures are classified and never retried here.
func (s *SessionCoordinator) Join(ctx context.Context, p JoinParams) (*JoinResult, error) {
	title := NormalizeTitle(p.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if p.AttendeeName == "" {
		return nil, fmt.Errorf("%w: attendee name is required", ErrInvalidRequest)
	}

	rec, err := s.repo.GetMeetingRecord(ctx, title)
	switch {
	case errors.Is(err, models.ErrNotFound):
		rec, err = s.createSession(ctx, title, p)
		if err != nil {
			s.recorder.RecordJoinFailure(failureReason(err))
			return nil, err
		}
	case err != nil:
		s.recorder.RecordJoinFailure("store")
		return nil, fmt.Errorf("failed to look up session for room: %w", err)
	default:
		s.recorder.RecordMeetingReused()
	}

	start := time.Now()
	attendee, err := s.gateway.CreateAttendee(ctx, rec.MeetingID, uuid.NewString())
	s.recorder.RecordProviderLatency("create_attendee", time.Since(start))
	if err != nil {
		if errors.Is(err, provider.ErrMeetingNotFound) {
			// The stored record points at a meeting the provider no longer
			// knows. Drop it so the next join recreates the session.
			if delErr := s.repo.DeleteMeetingRecord(ctx, title); delErr != nil {
				log.Printf("Error deleting stale record for room %s: %v", utils.SanitizeLogString(title), delErr)
			}
			s.recorder.RecordJoinFailure("stale_session")
			return nil, fmt.Errorf("%w: room %s", ErrStaleSession, utils.SanitizeLogString(title))
		}
		s.recorder.RecordJoinFailure(failureReason(err))
		return nil, err
	}

	attendeeRec := &models.AttendeeRecord{
		Title:       title,
		AttendeeID:  attendee.ID,
		DisplayName: p.AttendeeName,
		ExpiresAt:   time.Now().Add(s.cfg.SessionTTL),
	}
	if err := s.repo.SaveAttendee(ctx, attendeeRec, s.cfg.SessionTTL); err != nil {
		s.recorder.RecordJoinFailure("store")
		return nil, fmt.Errorf("failed to persist attendee record: %w", err)
	}

	// Usage accounting never blocks admission
	if _, err := s.tracker.OpenInterval(ctx, title, p.AttendeeName, p.UserEmail); err != nil {
		log.Printf("Error opening usage interval for %s in room %s: %v",
			utils.SanitizeLogString(p.AttendeeName), utils.SanitizeLogString(title), err)
	}

	s.recorder.RecordJoin()

	return &JoinResult{
		Meeting:  &provider.Meeting{ID: rec.MeetingID, Raw: rec.Meeting},
		Attendee: attendee,
	}, nil
}

// createSession creates the provider meeting and writes the meeting record
// together with the opening occupancy interval as one atomic unit
func (s *SessionCoordinator) createSession(ctx context.Context, title string, p JoinParams) (*models.MeetingRecord, error) {
	region := p.MediaRegion
	if region == "" {
		region = s.cfg.DefaultMediaRegion
	}

	start := time.Now()
	meeting, err := s.gateway.CreateMeeting(ctx, provider.CreateMeetingRequest{
		ClientRequestToken: uuid.NewString(),
		MediaRegion:        region,
		Features:           provider.MeetingFeatures{EchoReduction: p.EchoReduction},
	})
	s.recorder.RecordProviderLatency("create_meeting", time.Since(start))
	if err != nil {
		return nil, err
	}

	rec := &models.MeetingRecord{
		Title:     title,
		TeamID:    p.TeamID,
		MeetingID: meeting.ID,
		Meeting:   meeting.Raw,
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL),
	}
	occ := s.ledger.NewInterval(p.TeamID, title, p.AttendeeName, p.UserEmail)

	if err := s.repo.CreateSession(ctx, rec, occ, s.cfg.SessionTTL, s.cfg.LedgerTTL); err != nil {
		return nil, fmt.Errorf("failed to persist session for room: %w", err)
	}

	s.recorder.RecordMeetingCreated()
	return rec, nil
}

// End closes the caller's own usage interval and, when termination authority
// is asserted, tears the room down: provider meeting deleted, meeting record
// removed, room-level occupancy interval closed.
//
// Accounting failures during teardown are logged, not surfaced: occupancy
// bookkeeping must never keep a room alive. Ending an already-ended room is
// a no-op.
func (s *SessionCoordinator) End(ctx context.Context, p EndParams) error {
	title := NormalizeTitle(p.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}

	if err := s.tracker.CloseLatestOpenForParticipant(ctx, title, p.ParticipantName); err != nil {
		log.Printf("Error closing usage interval for %s in room %s: %v",
			utils.SanitizeLogString(p.ParticipantName), utils.SanitizeLogString(title), err)
	}

	if !p.TerminationAuthority {
		// The room stays live for the remaining participants
		return nil
	}

	rec, err := s.repo.GetMeetingRecord(ctx, title)
	if errors.Is(err, models.ErrNotFound) {
		// Already ended, nothing to tear down
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up session for room: %w", err)
	}

	start := time.Now()
	err = s.gateway.DeleteMeeting(ctx, rec.MeetingID)
	s.recorder.RecordProviderLatency("delete_meeting", time.Since(start))
	if err != nil && !errors.Is(err, provider.ErrMeetingNotFound) {
		return err
	}

	if err := s.repo.DeleteMeetingRecord(ctx, title); err != nil {
		return fmt.Errorf("failed to delete meeting record: %w", err)
	}

	if err := s.ledger.CloseLatestOpenForRoom(ctx, rec.TeamID, title); err != nil {
		log.Printf("Error closing occupancy interval for room %s: %v", utils.SanitizeLogString(title), err)
	}

	s.recorder.RecordRoomEnded()
	return nil
}

// ResolveAttendee resolves a provider attendee id back to its stored record
func (s *SessionCoordinator) ResolveAttendee(ctx context.Context, title, attendeeID string) (*models.AttendeeRecord, error) {
	return s.repo.GetAttendee(ctx, NormalizeTitle(title), attendeeID)
}

// failureReason maps an error to a metrics label
func failureReason(err error) string {
	switch {
	case errors.Is(err, provider.ErrBadRequest):
		return "provider_bad_request"
	case errors.Is(err, provider.ErrUnavailable):
		return "provider_unavailable"
	case errors.Is(err, provider.ErrMeetingNotFound):
		return "stale_session"
	default:
		return "store"
	}
}
