package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
)

var ErrOutcomeNotFound = errors.New("outcome record not found")

type OutcomeRepository interface {
	GetByAddress(ctx context.Context, address string) (*entity.OutcomeRecord, error)
	Save(ctx context.Context, record *entity.OutcomeRecord) error
}

type dbOutcome struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOutcomeRepository stores per-identity outcome records as JSON blobs.
// A zero ttl keeps records for the life of the database.
func NewOutcomeRepository(client *redis.Client, ttl time.Duration) OutcomeRepository {
	return &dbOutcome{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbOutcome) Save(ctx context.Context, record *entity.OutcomeRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal outcome record: %w", err)
	}

	recordKey := "outcome:" + record.Address
	if err = that.client.Set(ctx, recordKey, recordJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set outcome record: %w", err)
	}

	return nil
}

func (that *dbOutcome) GetByAddress(ctx context.Context, address string) (*entity.OutcomeRecord, error) {
	recordKey := "outcome:" + address

	response, err := that.client.Get(ctx, recordKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrOutcomeNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get outcome record by address: %w", err)
	}

	var record entity.OutcomeRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome record: %w", err)
	}

	return &record, nil
}
