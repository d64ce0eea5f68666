// Package journal persists the single durable record each alert evaluation
// unit owns: its assigned alert identity. The record is written once on
// instantiation and replayed on recovery, so a restarted unit re-enters its
// active state without reprocessing any other history.
package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the Redis key prefix for identity records.
const KeyPrefix = "alert:identity:"

// Journal stores evaluation-unit identity records in Redis.
type Journal struct {
	client *redis.Client
}

// NewJournal creates a journal backed by the given Redis client.
func NewJournal(client *redis.Client) *Journal {
	return &Journal{
		client: client,
	}
}

// Record durably assigns an alert identity to the named unit. The write is
// idempotent: once a unit has an identity, repeated records for the same
// unit leave the original in place.
func (j *Journal) Record(ctx context.Context, unitName string, alertID uuid.UUID) error {
	ok, err := j.client.SetNX(ctx, KeyPrefix+unitName, alertID.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to record identity for %s: %w", unitName, err)
	}
	if !ok {
		slog.Debug("Identity already recorded", "unit", unitName, "alert_id", alertID)
	}
	return nil
}

// Recover replays the identity record for the named unit. The second
// return value is false when the unit was never instantiated.
func (j *Journal) Recover(ctx context.Context, unitName string) (uuid.UUID, bool, error) {
	val, err := j.client.Get(ctx, KeyPrefix+unitName).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to recover identity for %s: %w", unitName, err)
	}
	alertID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt identity record for %s: %w", unitName, err)
	}
	return alertID, true, nil
}

// Forget removes the identity record, as part of passivating a unit whose
// alert definition no longer exists.
func (j *Journal) Forget(ctx context.Context, unitName string) error {
	if err := j.client.Del(ctx, KeyPrefix+unitName).Err(); err != nil {
		return fmt.Errorf("failed to forget identity for %s: %w", unitName, err)
	}
	return nil
}
