package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HyPolar/tic-tac-toe-backend/internal/config"
	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/pkg"
)

// PaymentGateway is the external payment rail boundary. Payout moves funds
// to a destination address and returns a receipt id.
type PaymentGateway interface {
	Payout(ctx context.Context, destination string, amount int64, memo string) (string, error)
}

// SettlementBridge pays the winner out once a match is final. Settlement is
// best-effort: a failed payout is logged and reported nowhere else; the
// match outcome is already irreversible by the time we get here.
type SettlementBridge struct {
	logger  *slog.Logger
	gateway PaymentGateway
	tiers   map[int64]config.Tier
}

func NewSettlementBridge(logger *slog.Logger, gateway PaymentGateway, wagers config.Wagers) *SettlementBridge {
	tiers := make(map[int64]config.Tier, len(wagers.Tiers))
	for _, tier := range wagers.Tiers {
		tiers[tier.Amount] = tier
	}

	return &SettlementBridge{
		logger:  logger.With("component", "settlement"),
		gateway: gateway,
		tiers:   tiers,
	}
}

func (that *SettlementBridge) MatchEnded(ctx context.Context, result *entity.MatchResult) {
	if result.Winner == nil || result.Winner.Bot {
		that.logger.Debug("no payout due", "matchID", result.MatchID)
		return
	}

	tier, ok := that.tiers[result.Tier]
	if !ok {
		that.logger.Error("finished match references unknown tier", "matchID", result.MatchID, "tier", result.Tier)
		return
	}

	memo := fmt.Sprintf("match %s payout", result.MatchID)

	receiptID, err := that.gateway.Payout(ctx, result.Winner.Address, tier.Payout, memo)
	if err != nil {
		// No inline retry: the failure is surfaced to logging and the match
		// stays finished.
		that.logger.Error("payout failed", "matchID", result.MatchID, "address", result.Winner.Address, "error", err)
		return
	}

	that.logger.Info("payout sent", "matchID", result.MatchID, "amount", tier.Payout, "receiptID", receiptID)
}

// DryRunGateway logs payouts instead of sending them; used for local runs
// and as the default when no payment rail is wired.
type DryRunGateway struct {
	logger *slog.Logger
}

func NewDryRunGateway(logger *slog.Logger) *DryRunGateway {
	return &DryRunGateway{logger: logger.With("component", "dry-run-gateway")}
}

func (that *DryRunGateway) Payout(_ context.Context, destination string, amount int64, memo string) (string, error) {
	receiptID := pkg.GenerateSessionID()

	that.logger.Info("dry-run payout", "destination", destination, "amount", amount, "memo", memo, "receiptID", receiptID)

	return receiptID, nil
}
