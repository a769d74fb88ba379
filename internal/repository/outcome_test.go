package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/repository"
	"github.com/HyPolar/tic-tac-toe-backend/testing/suite"
)

func TestOutcomeRepository(t *testing.T) {
	ctx, s := suite.New(t)

	repo := repository.NewOutcomeRepository(s.Storage, 0)

	t.Run("Unknown addresses report not found", func(t *testing.T) {
		// When: looking up an address that never played
		_, err := repo.GetByAddress(ctx, "0xNOBODY")

		// Then: the sentinel is returned
		require.ErrorIs(t, err, repository.ErrOutcomeNotFound)
	})

	t.Run("A saved record round-trips intact", func(t *testing.T) {
		// Given: a record with progress at two tiers
		record := entity.NewOutcomeRecord("0xAAA")
		record.RecordDecision(1000, true)
		record.RecordDecision(1000, false)
		record.RecordDecision(100, false)
		record.Cursors["high"] = 2
		record.Cursors["low"] = 1
		record.MarkOverrideUsed(1000)

		// When: saving and loading it back
		require.NoError(t, repo.Save(ctx, record))

		loaded, err := repo.GetByAddress(ctx, "0xAAA")
		require.NoError(t, err)

		// Then: every field survives
		assert.Equal(t, record.Address, loaded.Address)
		assert.Equal(t, record.Cursors, loaded.Cursors)
		assert.Equal(t, record.MatchesByTier, loaded.MatchesByTier)
		assert.Equal(t, record.BotWonByTier, loaded.BotWonByTier)
		assert.Equal(t, record.OverrideUsed, loaded.OverrideUsed)
		assert.Equal(t, record.Matches, loaded.Matches)
	})

	t.Run("Saving again overwrites the previous record", func(t *testing.T) {
		// Given: a stored record
		record := entity.NewOutcomeRecord("0xBBB")
		record.RecordDecision(1000, true)
		record.Cursors["high"]++
		require.NoError(t, repo.Save(ctx, record))

		// When: more progress is saved under the same address
		record.RecordDecision(1000, false)
		record.Cursors["high"]++
		require.NoError(t, repo.Save(ctx, record))

		// Then: the load reflects the latest state
		loaded, err := repo.GetByAddress(ctx, "0xBBB")
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Matches)
		assert.Equal(t, 2, loaded.Cursors["high"])
	})

	t.Run("A configured TTL expires records", func(t *testing.T) {
		// Given: a clean keyspace and a repository with a short history TTL
		s.ClearOutcomes(ctx)
		expiring := repository.NewOutcomeRepository(s.Storage, time.Second)

		_, err := expiring.GetByAddress(ctx, "0xAAA")
		require.ErrorIs(t, err, repository.ErrOutcomeNotFound)

		record := entity.NewOutcomeRecord("0xCCC")
		require.NoError(t, expiring.Save(ctx, record))

		// When: the TTL elapses
		time.Sleep(1500 * time.Millisecond)

		// Then: the record is gone
		_, err = expiring.GetByAddress(ctx, "0xCCC")
		require.ErrorIs(t, err, repository.ErrOutcomeNotFound)
	})
}
