package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/HyPolar/tic-tac-toe-backend/internal/config"
	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/repository"
)

const (
	tokenBotWin  = 'W'
	tokenBotLoss = 'L'
)

var ErrEmptyScript = errors.New("script bucket has no tokens")

// OutcomeService decides, before an automated opponent is attached, whether
// the bot must win or lose the match. Decisions follow a per-bucket repeating
// script with a per-identity cursor, plus the same-tier rematch override.
type OutcomeService interface {
	Decide(ctx context.Context, address string, tier int64) (bool, error)
}

type outcomeService struct {
	logger *slog.Logger
	repo   repository.OutcomeRepository
	wagers config.Wagers

	mu    sync.Mutex
	rng   *rand.Rand
	locks map[string]*sync.Mutex
}

func NewOutcomeService(logger *slog.Logger, repo repository.OutcomeRepository, wagers config.Wagers, rng *rand.Rand) OutcomeService {
	return &outcomeService{
		logger: logger.With("component", "outcome"),
		repo:   repo,
		wagers: wagers,
		rng:    rng,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (that *outcomeService) Decide(ctx context.Context, address string, tier int64) (bool, error) {
	// Untracked identities get a coin flip and leave no record behind.
	if address == "" {
		return that.randomVerdict(), nil
	}

	unlock := that.lockIdentity(address)
	defer unlock()

	record, err := that.repo.GetByAddress(ctx, address)
	if errors.Is(err, repository.ErrOutcomeNotFound) {
		record = entity.NewOutcomeRecord(address)
	} else if err != nil {
		return false, fmt.Errorf("failed to get outcome record: %w", err)
	}

	bucketName, bucket := that.bucketForAmount(tier)
	if len(bucket.Script) == 0 {
		return false, fmt.Errorf("%w: bucket %q", ErrEmptyScript, bucketName)
	}

	var mustWin bool

	if bucket.RematchOverride && record.EligibleForRematchOverride(tier) {
		// The override consumes only the decision, not a script advance.
		mustWin = true
		record.MarkOverrideUsed(tier)
	} else {
		cursor := record.Cursors[bucketName]
		mustWin = bucket.Script[cursor%len(bucket.Script)] == tokenBotWin
		record.Cursors[bucketName] = cursor + 1
	}

	record.RecordDecision(tier, mustWin)

	if err = that.repo.Save(ctx, record); err != nil {
		return false, fmt.Errorf("failed to save outcome record: %w", err)
	}

	that.logger.Debug("verdict decided", "address", address, "tier", tier, "mustWin", mustWin)

	return mustWin, nil
}

func (that *outcomeService) bucketForAmount(amount int64) (string, config.Bucket) {
	tier, ok := that.wagers.TierByAmount(amount)
	if !ok {
		// Tiers outside the table fall back to the default bucket.
		tier = config.Tier{Amount: amount}
	}

	return that.wagers.BucketFor(tier)
}

func (that *outcomeService) randomVerdict() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rng.Intn(2) == 0
}

// lockIdentity serializes decisions per identity so concurrent matches can
// never corrupt the same record's cursors.
func (that *outcomeService) lockIdentity(address string) func() {
	that.mu.Lock()
	lock, ok := that.locks[address]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[address] = lock
	}
	that.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}
