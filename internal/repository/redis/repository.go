// Package redis provides a Redis/Valkey implementation of the repository interface
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/navikt/huddle/internal/config"
	"github.com/navikt/huddle/internal/models"
	"github.com/redis/go-redis/v9"
)

// Repository implements the repository interface with Redis storage.
//
// Meeting and attendee records are plain keys with TTL. Occupancy and usage
// intervals are kept as one JSON value per record plus a sorted-set index per
// room, scored by interval start time, so "latest record" lookups are a
// single ZREVRANGE.
type Repository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRepository creates a new Redis repository
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}

		if opt.DB == 0 {
			opt.DB = cfg.DB
		}
		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}

		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection, used by the readiness probe
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// roomKey returns the Redis key for a room's meeting record
func (r *Repository) roomKey(title string) string {
	return fmt.Sprintf("%srooms:%s", r.keyPrefix, title)
}

// attendeeKey returns the Redis key for an attendee record
func (r *Repository) attendeeKey(title, attendeeID string) string {
	return fmt.Sprintf("%sattendees:%s:%s", r.keyPrefix, title, attendeeID)
}

// occupancyIndexKey returns the sorted-set key ordering a room's occupancy intervals
func (r *Repository) occupancyIndexKey(teamID, title string) string {
	return fmt.Sprintf("%soccupancy:%s:%s", r.keyPrefix, teamID, title)
}

// occupancyKey returns the Redis key for a single occupancy interval
func (r *Repository) occupancyKey(teamID, title, id string) string {
	return fmt.Sprintf("%soccupancy:%s:%s:%s", r.keyPrefix, teamID, title, id)
}

// usageIndexKey returns the sorted-set key ordering a room's usage intervals
func (r *Repository) usageIndexKey(title string) string {
	return fmt.Sprintf("%susage:%s", r.keyPrefix, title)
}

// usageKey returns the Redis key for a single participant usage interval
func (r *Repository) usageKey(title, id string) string {
	return fmt.Sprintf("%susage:%s:%s", r.keyPrefix, title, id)
}

// GetMeetingRecord retrieves the meeting record for a room title.
// Expired records are reported as absent even if still physically present.
func (r *Repository) GetMeetingRecord(ctx context.Context, title string) (*models.MeetingRecord, error) {
	data, err := r.client.Get(ctx, r.roomKey(title)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get meeting record: %w", err)
	}

	var rec models.MeetingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meeting record: %w", err)
	}

	if rec.Expired(time.Now()) {
		return nil, models.ErrNotFound
	}

	return &rec, nil
}

// CreateSession writes the meeting record and its opening occupancy interval
// as a single atomic unit, so a concurrent reader never observes one without
// the other.
func (r *Repository) CreateSession(ctx context.Context, rec *models.MeetingRecord, occ *models.OccupancyRecord, ttl, ledgerTTL time.Duration) error {
	recData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal meeting record: %w", err)
	}
	occData, err := json.Marshal(occ)
	if err != nil {
		return fmt.Errorf("failed to marshal occupancy record: %w", err)
	}

	indexKey := r.occupancyIndexKey(occ.TeamID, occ.Title)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.roomKey(rec.Title), recData, ttl)
	pipe.Set(ctx, r.occupancyKey(occ.TeamID, occ.Title, occ.ID), occData, ledgerTTL)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(occ.StartAt.UnixNano()), Member: occ.ID})
	if ledgerTTL > 0 {
		pipe.Expire(ctx, indexKey, ledgerTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// DeleteMeetingRecord removes the meeting record for a title.
// Deleting an absent record is a no-op.
func (r *Repository) DeleteMeetingRecord(ctx context.Context, title string) error {
	if err := r.client.Del(ctx, r.roomKey(title)).Err(); err != nil {
		return fmt.Errorf("failed to delete meeting record: %w", err)
	}
	return nil
}

// SaveAttendee persists an attendee record with the given TTL
func (r *Repository) SaveAttendee(ctx context.Context, rec *models.AttendeeRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal attendee record: %w", err)
	}

	key := r.attendeeKey(rec.Title, rec.AttendeeID)
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save attendee record: %w", err)
	}

	return nil
}

// GetAttendee retrieves an attendee record by title and provider attendee id
func (r *Repository) GetAttendee(ctx context.Context, title, attendeeID string) (*models.AttendeeRecord, error) {
	data, err := r.client.Get(ctx, r.attendeeKey(title, attendeeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attendee record: %w", err)
	}

	var rec models.AttendeeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attendee record: %w", err)
	}

	return &rec, nil
}

// SaveOccupancy inserts or updates a room-level occupancy interval
func (r *Repository) SaveOccupancy(ctx context.Context, rec *models.OccupancyRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal occupancy record: %w", err)
	}

	indexKey := r.occupancyIndexKey(rec.TeamID, rec.Title)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.occupancyKey(rec.TeamID, rec.Title, rec.ID), data, ttl)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(rec.StartAt.UnixNano()), Member: rec.ID})
	if ttl > 0 {
		pipe.Expire(ctx, indexKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save occupancy record: %w", err)
	}

	return nil
}

// LatestOccupancy returns a room's occupancy intervals ordered by start time
// descending. A limit <= 0 returns all records.
func (r *Repository) LatestOccupancy(ctx context.Context, teamID, title string, limit int) ([]*models.OccupancyRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := r.client.ZRevRange(ctx, r.occupancyIndexKey(teamID, title), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list occupancy records: %w", err)
	}
	if len(ids) == 0 {
		return []*models.OccupancyRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.occupancyKey(teamID, title, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get occupancy records: %w", err)
	}

	records := make([]*models.OccupancyRecord, 0, len(values))
	for _, v := range values {
		strData, ok := v.(string)
		if !ok {
			// Index entry outlived its record; skip it
			continue
		}

		var rec models.OccupancyRecord
		if err := json.Unmarshal([]byte(strData), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	return records, nil
}

// SaveUsage inserts or updates a participant usage interval
func (r *Repository) SaveUsage(ctx context.Context, rec *models.ParticipantUsageRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	indexKey := r.usageIndexKey(rec.Title)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.usageKey(rec.Title, rec.ID), data, ttl)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(rec.StartAt.UnixNano()), Member: rec.ID})
	if ttl > 0 {
		pipe.Expire(ctx, indexKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save usage record: %w", err)
	}

	return nil
}

// LatestUsage returns a room's participant usage intervals ordered by start
// time descending. A limit <= 0 returns all records.
func (r *Repository) LatestUsage(ctx context.Context, title string, limit int) ([]*models.ParticipantUsageRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := r.client.ZRevRange(ctx, r.usageIndexKey(title), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	if len(ids) == 0 {
		return []*models.ParticipantUsageRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.usageKey(title, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage records: %w", err)
	}

	records := make([]*models.ParticipantUsageRecord, 0, len(values))
	for _, v := range values {
		strData, ok := v.(string)
		if !ok {
			continue
		}

		var rec models.ParticipantUsageRecord
		if err := json.Unmarshal([]byte(strData), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	return records, nil
}
