package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/navikt/huddle/internal/models"
	"github.com/navikt/huddle/internal/provider"
	"github.com/navikt/huddle/internal/repository/memory"
	"github.com/navikt/huddle/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway simulates the conferencing provider: meetings exist from
// CreateMeeting until DeleteMeeting, and attendee creation against an
// unknown meeting fails like a stale-record admission would.
type fakeGateway struct {
	mu sync.Mutex

	meetings    map[string]bool
	meetingSeq  int
	attendeeSeq int

	createMeetingCalls  int
	createAttendeeCalls int
	deleteMeetingCalls  int

	createMeetingErr  error
	createAttendeeErr error
	deleteMeetingErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{meetings: make(map[string]bool)}
}

func (g *fakeGateway) CreateMeeting(ctx context.Context, req provider.CreateMeetingRequest) (*provider.Meeting, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.createMeetingCalls++
	if g.createMeetingErr != nil {
		return nil, g.createMeetingErr
	}

	g.meetingSeq++
	id := fmt.Sprintf("mtg-%d", g.meetingSeq)
	g.meetings[id] = true

	return &provider.Meeting{
		ID:  id,
		Raw: json.RawMessage(fmt.Sprintf(`{"meeting_id":%q}`, id)),
	}, nil
}

func (g *fakeGateway) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (*provider.Attendee, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.createAttendeeCalls++
	if g.createAttendeeErr != nil {
		return nil, g.createAttendeeErr
	}
	if !g.meetings[meetingID] {
		return nil, provider.ErrMeetingNotFound
	}

	g.attendeeSeq++
	return &provider.Attendee{
		ID:             fmt.Sprintf("att-%d", g.attendeeSeq),
		ExternalUserID: externalUserID,
		JoinToken:      "jt",
	}, nil
}

func (g *fakeGateway) DeleteMeeting(ctx context.Context, meetingID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleteMeetingCalls++
	if g.deleteMeetingErr != nil {
		return g.deleteMeetingErr
	}
	if !g.meetings[meetingID] {
		return provider.ErrMeetingNotFound
	}

	delete(g.meetings, meetingID)
	return nil
}

func newTestCoordinator(t *testing.T) (*service.SessionCoordinator, *fakeGateway, *memory.Repository) {
	t.Helper()

	gateway := newFakeGateway()
	repo := memory.NewRepository()
	ledger := service.NewOccupancyLedger(repo, time.Hour)
	tracker := service.NewParticipantUsageTracker(repo, time.Hour)

	coordinator := service.NewSessionCoordinator(gateway, repo, ledger, tracker, nil, service.CoordinatorConfig{
		SessionTTL:         time.Hour,
		LedgerTTL:          24 * time.Hour,
		DefaultMediaRegion: "eu-central-1",
	})

	return coordinator, gateway, repo
}

func joinParams(name string) service.JoinParams {
	return service.JoinParams{
		Title:        "Standup-1",
		AttendeeName: name,
		UserEmail:    name + "@example.com",
		TeamID:       "team-a",
	}
}

func TestJoinCreatesSessionWhenAbsent(t *testing.T) {
	coordinator, gateway, repo := newTestCoordinator(t)
	ctx := context.Background()

	result, err := coordinator.Join(ctx, joinParams("Alice"))
	require.NoError(t, err)
	require.NotNil(t, result.Meeting)
	require.NotNil(t, result.Attendee)

	assert.Equal(t, 1, gateway.createMeetingCalls, "exactly one provider meeting created")
	assert.Equal(t, 1, gateway.createAttendeeCalls)

	// The title is case-normalized before storage
	rec, err := repo.GetMeetingRecord(ctx, "standup-1")
	require.NoError(t, err)
	assert.Equal(t, result.Meeting.ID, rec.MeetingID)
	assert.Equal(t, "team-a", rec.TeamID)

	intervals, err := repo.LatestOccupancy(ctx, "team-a", "standup-1", 0)
	require.NoError(t, err)
	require.Len(t, intervals, 1, "exactly one open occupancy interval")
	assert.True(t, intervals[0].Open())
	assert.Equal(t, "Alice", intervals[0].AttendeeName)

	// The joiner's own usage interval opens as well
	usage, err := repo.LatestUsage(ctx, "standup-1", 0)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "Alice", usage[0].Participant)
	assert.True(t, usage[0].Open())

	// The attendee record resolves the provider id back to the name
	attendee, err := coordinator.ResolveAttendee(ctx, "standup-1", result.Attendee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", attendee.DisplayName)
}

func TestJoinReusesLiveSession(t *testing.T) {
	coordinator, gateway, _ := newTestCoordinator(t)
	ctx := context.Background()

	first, err := coordinator.Join(ctx, joinParams("Alice"))
	require.NoError(t, err)

	second, err := coordinator.Join(ctx, joinParams("Bob"))
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.createMeetingCalls, "live session must be reused, not recreated")
	assert.Equal(t, 2, gateway.createAttendeeCalls)
	assert.Equal(t, first.Meeting.ID, second.Meeting.ID)
	assert.NotEqual(t, first.Attendee.ID, second.Attendee.ID)
}

func TestJoinValidatesInput(t *testing.T) {
	coordinator, gateway, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Join(ctx, service.JoinParams{AttendeeName: "Alice"})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)

	_, err = coordinator.Join(ctx, service.JoinParams{Title: "standup-1"})
	assert.ErrorIs(t, err, service.ErrInvalidRequest)

	assert.Zero(t, gateway.createMeetingCalls)
}

func TestJoinSurfacesProviderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("BadRequest", func(t *testing.T) {
		coordinator, gateway, repo := newTestCoordinator(t)
		gateway.createMeetingErr = provider.ErrBadRequest

		_, err := coordinator.Join(ctx, joinParams("Alice"))
		assert.ErrorIs(t, err, provider.ErrBadRequest)

		// Nothing persisted when meeting creation fails
		_, err = repo.GetMeetingRecord(ctx, "standup-1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Unavailable", func(t *testing.T) {
		coordinator, gateway, _ := newTestCoordinator(t)
		gateway.createMeetingErr = provider.ErrUnavailable

		_, err := coordinator.Join(ctx, joinParams("Alice"))
		assert.ErrorIs(t, err, provider.ErrUnavailable)
	})
}

func TestJoinStaleSession(t *testing.T) {
	coordinator, gateway, repo := newTestCoordinator(t)
	ctx := context.Background()

	// Seed a record pointing at a meeting the provider does not know
	stale := &models.MeetingRecord{
		Title:     "standup-1",
		TeamID:    "team-a",
		MeetingID: "mtg-gone",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	occ := &models.OccupancyRecord{
		ID: "occ-stale", TeamID: "team-a", Title: "standup-1",
		StartAt: time.Now(), Status: models.IntervalStatusOpen,
	}
	require.NoError(t, repo.CreateSession(ctx, stale, occ, time.Hour, time.Hour))

	_, err := coordinator.Join(ctx, joinParams("Alice"))
	assert.ErrorIs(t, err, service.ErrStaleSession)

	// The stale record was dropped
	_, err = repo.GetMeetingRecord(ctx, "standup-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// A retried join creates a fresh meeting and succeeds
	result, err := coordinator.Join(ctx, joinParams("Alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.createMeetingCalls)
	assert.NotEqual(t, "mtg-gone", result.Meeting.ID)
}

func TestEndWithTerminationAuthority(t *testing.T) {
	coordinator, gateway, repo := newTestCoordinator(t)
	ctx := context.Background()

	first, err := coordinator.Join(ctx, joinParams("Alice"))
	require.NoError(t, err)

	err = coordinator.End(ctx, service.EndParams{
		Title:                "standup-1",
		ParticipantName:      "Alice",
		UserEmail:            "alice@example.com",
		TerminationAuthority: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.deleteMeetingCalls)

	_, err = repo.GetMeetingRecord(ctx, "standup-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	intervals, err := repo.LatestOccupancy(ctx, "team-a", "standup-1", 1)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.False(t, intervals[0].Open(), "room occupancy interval closed on termination")

	// The state machine is back at no-session: a new join creates a new meeting
	second, err := coordinator.Join(ctx, joinParams("Bob"))
	require.NoError(t, err)
	assert.Equal(t, 2, gateway.createMeetingCalls)
	assert.NotEqual(t, first.Meeting.ID, second.Meeting.ID)
}

func TestEndWithoutAuthorityLeavesRoomLive(t *testing.T) {
	coordinator, gateway, repo := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Join(ctx, joinParams("Alice"))
	require.NoError(t, err)
	_, err = coordinator.Join(ctx, joinParams("Bob"))
	require.NoError(t, err)

	err = coordinator.End(ctx, service.EndParams{
		Title:           "standup-1",
		ParticipantName: "Alice",
	})
	require.NoError(t, err)

	assert.Zero(t, gateway.deleteMeetingCalls, "room must stay live without termination authority")

	_, err = repo.GetMeetingRecord(ctx, "standup-1")
	assert.NoError(t, err)

	// Only Alice's usage interval closed
	usage, err := repo.LatestUsage(ctx, "standup-1", 0)
	require.NoError(t, err)
	for _, rec := range usage {
		switch rec.Participant {
		case "Alice":
			assert.False(t, rec.Open())
		case "Bob":
			assert.True(t, rec.Open())
		}
	}
}

func TestEndIsIdempotent(t *testing.T) {
	coordinator, gateway, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coordinator.Join(ctx, joinParams("Alice"))
	require.NoError(t, err)

	end := service.EndParams{
		Title:                "standup-1",
		ParticipantName:      "Alice",
		TerminationAuthority: true,
	}
	require.NoError(t, coordinator.End(ctx, end))
	require.NoError(t, coordinator.End(ctx, end), "second end must not raise")

	assert.Equal(t, 1, gateway.deleteMeetingCalls, "second end is a no-op for provider deletion")
}

func TestEndUnknownRoom(t *testing.T) {
	coordinator, gateway, _ := newTestCoordinator(t)

	err := coordinator.End(context.Background(), service.EndParams{
		Title:                "never-created",
		ParticipantName:      "Alice",
		TerminationAuthority: true,
	})
	assert.NoError(t, err)
	assert.Zero(t, gateway.deleteMeetingCalls)
}

func TestJoinAfterPartialCreateReusesMeetingRecord(t *testing.T) {
	// A join that fails after meeting creation but before attendee creation
	// leaves a usable record behind; the next joiner reuses it.
	coordinator, gateway, repo := newTestCoordinator(t)
	ctx := context.Background()

	gateway.createAttendeeErr = provider.ErrUnavailable
	_, err := coordinator.Join(ctx, joinParams("Alice"))
	assert.ErrorIs(t, err, provider.ErrUnavailable)

	_, err = repo.GetMeetingRecord(ctx, "standup-1")
	assert.NoError(t, err, "meeting record survives the failed admission")

	gateway.createAttendeeErr = nil
	_, err = coordinator.Join(ctx, joinParams("Bob"))
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.createMeetingCalls, "the as-yet-unoccupied live room is reused")
}
