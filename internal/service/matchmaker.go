package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/HyPolar/tic-tac-toe-backend/internal/apperror"
	"github.com/HyPolar/tic-tac-toe-backend/internal/config"
	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/pkg"
)

// ResultObserver consumes terminal match results: the settlement bridge and
// any passive engagement features attach through this seam.
type ResultObserver interface {
	MatchEnded(ctx context.Context, result *entity.MatchResult)
}

// Matchmaker pairs paying participants by wager tier. When no second human
// arrives inside the randomized spawn window, it asks the outcome service for
// a verdict and attaches an automated opponent instead.
type Matchmaker struct {
	mu sync.Mutex

	logger   *slog.Logger
	gameConf config.Game
	wagers   config.Wagers

	outcome OutcomeService
	bots    BotService

	rng       *rand.Rand
	observers []ResultObserver

	matches       map[string]*MatchSession
	waiting       map[int64][]string
	byParticipant map[string]string
	spawnTimers   map[string]*time.Timer
}

func NewMatchmaker(logger *slog.Logger, gameConf config.Game, wagers config.Wagers, outcome OutcomeService, bots BotService, rng *rand.Rand) *Matchmaker {
	return &Matchmaker{
		logger:        logger.With("component", "matchmaker"),
		gameConf:      gameConf,
		wagers:        wagers,
		outcome:       outcome,
		bots:          bots,
		rng:           rng,
		matches:       make(map[string]*MatchSession),
		waiting:       make(map[int64][]string),
		byParticipant: make(map[string]string),
		spawnTimers:   make(map[string]*time.Timer),
	}
}

func (that *Matchmaker) AddObserver(observer ResultObserver) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.observers = append(that.observers, observer)
}

// OnParticipantReady joins a waiting match at the same tier, or creates one
// and arms the bot-spawn timer.
func (that *Matchmaker) OnParticipantReady(ctx context.Context, participant *entity.Participant, channel ParticipantChannel, tier int64) (*MatchSession, error) {
	if _, ok := that.wagers.TierByAmount(tier); !ok {
		return nil, fmt.Errorf("%w: %d", apperror.ErrUnknownTier, tier)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, busy := that.byParticipant[participant.ID]; busy {
		return nil, apperror.ErrAlreadyInMatch
	}

	if queue := that.waiting[tier]; len(queue) > 0 {
		session := that.matches[queue[0]]
		that.waiting[tier] = queue[1:]
		that.cancelSpawnTimer(session.ID())

		if err := session.Attach(participant, channel); err != nil {
			return nil, fmt.Errorf("failed to join waiting match: %w", err)
		}

		that.byParticipant[participant.ID] = session.ID()

		return session, nil
	}

	return that.createMatch(participant, channel, tier)
}

func (that *Matchmaker) createMatch(participant *entity.Participant, channel ParticipantChannel, tier int64) (*MatchSession, error) {
	match := entity.NewMatch(pkg.GenerateMatchID(), tier)
	sessionRNG := rand.New(rand.NewSource(that.rng.Int63())) //nolint:gosec // game randomness, not crypto

	session := NewMatchSession(that.logger, that.gameConf, sessionRNG, match, that.bots, that.handleResult)

	if err := session.Attach(participant, channel); err != nil {
		return nil, fmt.Errorf("failed to attach participant: %w", err)
	}

	that.matches[match.ID] = session
	that.waiting[tier] = append(that.waiting[tier], match.ID)
	that.byParticipant[participant.ID] = match.ID

	delay := that.spawnDelay()
	that.spawnTimers[match.ID] = time.AfterFunc(delay, func() {
		that.spawnBot(match.ID)
	})

	that.logger.Info("match created, waiting for opponent", "matchID", match.ID, "tier", tier, "botSpawnIn", delay)

	return session, nil
}

// spawnBot fires when the spawn window elapses with the match still waiting.
// The bot participant is indistinguishable from a human in every
// notification that leaves the server.
func (that *Matchmaker) spawnBot(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.matches[matchID]
	if !ok || !session.IsWaiting() {
		return
	}

	delete(that.spawnTimers, matchID)

	snapshot := session.Snapshot()
	if len(snapshot.Participants) != 1 {
		return
	}

	human := snapshot.Participants[0]

	mustWin, err := that.outcome.Decide(context.Background(), human.Address, snapshot.Tier)
	if err != nil {
		// Verdict store hiccup: leave the match waiting and try again after
		// another spawn window instead of stranding the human forever.
		delay := that.spawnDelay()
		that.spawnTimers[matchID] = time.AfterFunc(delay, func() {
			that.spawnBot(matchID)
		})

		that.logger.Error("failed to decide bot verdict, spawn re-armed", "matchID", matchID, "retryIn", delay, "error", err)

		return
	}

	botParticipant := entity.NewBotParticipant(pkg.GenerateSessionID())

	if err = session.AttachBot(botParticipant, that.bots.NewSession(mustWin)); err != nil {
		that.logger.Error("failed to attach bot", "matchID", matchID, "error", err)
		return
	}

	that.byParticipant[botParticipant.ID] = matchID
	that.removeFromWaiting(snapshot.Tier, matchID)

	that.logger.Info("bot attached", "matchID", matchID)
}

// OnParticipantLeft reclaims a waiting participant's match, or forfeits a
// live one to the remaining slot.
func (that *Matchmaker) OnParticipantLeft(participantID string) {
	that.mu.Lock()

	matchID, ok := that.byParticipant[participantID]
	if !ok {
		that.mu.Unlock()
		return
	}

	session := that.matches[matchID]
	if session == nil {
		that.mu.Unlock()
		return
	}

	if session.IsWaiting() {
		that.cancelSpawnTimer(matchID)
		that.evict(matchID)
		that.mu.Unlock()

		that.logger.Info("waiting participant left, match discarded", "matchID", matchID)

		return
	}

	that.mu.Unlock()

	session.HandleDisconnect(participantID)
}

// handleResult fans a terminal result out to observers and schedules the
// finished match's eviction from the live registry.
func (that *Matchmaker) handleResult(result *entity.MatchResult) {
	ctx := context.Background()

	that.mu.Lock()
	observers := make([]ResultObserver, len(that.observers))
	copy(observers, that.observers)
	that.mu.Unlock()

	for _, observer := range observers {
		observer.MatchEnded(ctx, result)
	}

	time.AfterFunc(that.gameConf.FinishedEvictAfter, func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		that.evict(result.MatchID)
	})
}

// evict removes a match and its participants from the registry.
// Caller holds the lock.
func (that *Matchmaker) evict(matchID string) {
	session, ok := that.matches[matchID]
	if !ok {
		return
	}

	snapshot := session.Snapshot()
	for _, participant := range snapshot.Participants {
		delete(that.byParticipant, participant.ID)
	}

	that.removeFromWaiting(snapshot.Tier, matchID)
	delete(that.matches, matchID)
}

func (that *Matchmaker) cancelSpawnTimer(matchID string) {
	if timer, ok := that.spawnTimers[matchID]; ok {
		timer.Stop()
		delete(that.spawnTimers, matchID)
	}
}

func (that *Matchmaker) removeFromWaiting(tier int64, matchID string) {
	queue := that.waiting[tier]
	for i, id := range queue {
		if id == matchID {
			that.waiting[tier] = append(queue[:i], queue[i+1:]...)
			return
		}
	}
}

func (that *Matchmaker) spawnDelay() time.Duration {
	delay := that.gameConf.BotSpawnMin
	if that.gameConf.BotSpawnMax > that.gameConf.BotSpawnMin {
		delay += time.Duration(that.rng.Int63n(int64(that.gameConf.BotSpawnMax - that.gameConf.BotSpawnMin)))
	}

	return delay
}
