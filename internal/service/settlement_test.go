package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
)

type payoutCall struct {
	destination string
	amount      int64
	memo        string
}

type fakeGateway struct {
	err   error
	calls []payoutCall
}

func (that *fakeGateway) Payout(_ context.Context, destination string, amount int64, memo string) (string, error) {
	that.calls = append(that.calls, payoutCall{destination: destination, amount: amount, memo: memo})

	if that.err != nil {
		return "", that.err
	}

	return "receipt-1", nil
}

func newTestBridge(gateway PaymentGateway) *SettlementBridge {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return NewSettlementBridge(logger, gateway, testWagers())
}

func TestSettlementBridge_MatchEnded(t *testing.T) {
	ctx := context.Background()

	t.Run("A human winner is paid the tier payout", func(t *testing.T) {
		// Given: a finished tier-1000 match won by a human
		gateway := &fakeGateway{}
		bridge := newTestBridge(gateway)

		winner := entity.NewParticipant("p-1", "0xAAA")
		loser := entity.NewBotParticipant("p-bot")

		// When: the result arrives
		bridge.MatchEnded(ctx, &entity.MatchResult{
			MatchID: "match-1",
			Tier:    1000,
			Winner:  winner,
			Loser:   loser,
		})

		// Then: exactly one payout goes to the winner's address
		assert.Len(t, gateway.calls, 1)
		assert.Equal(t, "0xAAA", gateway.calls[0].destination)
		assert.Equal(t, int64(1800), gateway.calls[0].amount)
		assert.Contains(t, gateway.calls[0].memo, "match-1")
	})

	t.Run("A winning bot earns nothing", func(t *testing.T) {
		// Given: a match the automated opponent won
		gateway := &fakeGateway{}
		bridge := newTestBridge(gateway)

		// When: the result arrives
		bridge.MatchEnded(ctx, &entity.MatchResult{
			MatchID: "match-1",
			Tier:    1000,
			Winner:  entity.NewBotParticipant("p-bot"),
			Loser:   entity.NewParticipant("p-1", "0xAAA"),
		})

		// Then: no payout was attempted
		assert.Empty(t, gateway.calls)
	})

	t.Run("A match with no winner settles nothing", func(t *testing.T) {
		// Given: an abandoned match
		gateway := &fakeGateway{}
		bridge := newTestBridge(gateway)

		// When: the result arrives without a winner
		bridge.MatchEnded(ctx, &entity.MatchResult{MatchID: "match-1", Tier: 1000})

		// Then: no payout was attempted
		assert.Empty(t, gateway.calls)
	})

	t.Run("An unknown tier is logged and skipped", func(t *testing.T) {
		// Given: a result referencing a tier missing from the table
		gateway := &fakeGateway{}
		bridge := newTestBridge(gateway)

		// When: the result arrives
		bridge.MatchEnded(ctx, &entity.MatchResult{
			MatchID: "match-1",
			Tier:    77,
			Winner:  entity.NewParticipant("p-1", "0xAAA"),
		})

		// Then: no payout was attempted
		assert.Empty(t, gateway.calls)
	})

	t.Run("A failing payout is swallowed", func(t *testing.T) {
		// Given: a gateway that rejects everything
		gateway := &fakeGateway{err: errors.New("rail unavailable")}
		bridge := newTestBridge(gateway)

		// When / Then: the bridge logs and returns without panicking
		bridge.MatchEnded(ctx, &entity.MatchResult{
			MatchID: "match-1",
			Tier:    1000,
			Winner:  entity.NewParticipant("p-1", "0xAAA"),
		})
		assert.Len(t, gateway.calls, 1)
	})
}
