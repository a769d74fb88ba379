package service

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/HyPolar/tic-tac-toe-backend/internal/apperror"
	"github.com/HyPolar/tic-tac-toe-backend/internal/config"
	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/tictactoe"
)

const (
	EventWaitingForOpponent = "waitingForOpponent"
	EventMatchFound         = "matchFound"
	EventTurnAdvanced       = "turnAdvanced"
	EventMatchEnded         = "matchEnded"
	EventMoveRejected       = "moveRejected"
)

// ParticipantChannel is the notification sink for one match slot. Delivery
// is best-effort: a failed notify is only treated as a disconnect when the
// transport itself reports the channel closed.
type ParticipantChannel interface {
	Notify(event string, payload any) error
}

type noopChannel struct{}

func (noopChannel) Notify(string, any) error { return nil }

type MatchFoundPayload struct {
	MatchID string `json:"match_id"`
	Wager   int64  `json:"wager"`
	Mark    string `json:"mark"`
}

type TurnPayload struct {
	MatchID   string    `json:"match_id"`
	Board     [9]string `json:"board"`
	Turn      string    `json:"turn"`
	Moves     int       `json:"moves"`
	Deadline  time.Time `json:"deadline"`
	Restarted bool      `json:"restarted,omitempty"`
}

type MatchEndedPayload struct {
	MatchID  string    `json:"match_id"`
	Board    [9]string `json:"board"`
	Winner   string    `json:"winner"`
	WinnerID string    `json:"winner_id"`
	Line     []int     `json:"line,omitempty"`
	Forfeit  bool      `json:"forfeit,omitempty"`
}

// MatchSession owns one match's lifecycle. A single mutex serializes move
// application, timer firing, and disconnect handling, so no two mutations of
// the same match ever run concurrently. Timer callbacks carry the turn epoch
// they were armed with and no-op when it has moved on.
type MatchSession struct {
	mu sync.Mutex

	logger *slog.Logger
	conf   config.Game
	rng    *rand.Rand

	match    *entity.Match
	channels map[string]ParticipantChannel

	botSvc     BotService
	botSession *BotSession

	turnEpoch      int
	turnTimer      *time.Timer
	countdownTimer *time.Timer

	onResult func(result *entity.MatchResult)
}

func NewMatchSession(logger *slog.Logger, conf config.Game, rng *rand.Rand, match *entity.Match, botSvc BotService, onResult func(*entity.MatchResult)) *MatchSession {
	return &MatchSession{
		logger:   logger.With("component", "match", "matchID", match.ID),
		conf:     conf,
		rng:      rng,
		match:    match,
		channels: make(map[string]ParticipantChannel),
		botSvc:   botSvc,
		onResult: onResult,
	}
}

func (that *MatchSession) ID() string {
	return that.match.ID
}

func (that *MatchSession) Tier() int64 {
	return that.match.Tier
}

func (that *MatchSession) IsWaiting() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.match.IsWaiting()
}

func (that *MatchSession) IsFinished() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.match.IsFinished()
}

// Snapshot returns a copy of the match for callers outside the lock.
func (that *MatchSession) Snapshot() entity.Match {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := *that.match

	return snapshot
}

// Attach fills the next free slot. The first participant is told to wait;
// the second one completes the match and starts the countdown.
func (that *MatchSession) Attach(participant *entity.Participant, channel ParticipantChannel) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.attach(participant, channel)
}

// AttachBot fills the second slot with an automated opponent. The human-side
// notification is identical to a human pairing.
func (that *MatchSession) AttachBot(participant *entity.Participant, session *BotSession) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.attach(participant, noopChannel{}); err != nil {
		return err
	}

	that.botSession = session

	return nil
}

func (that *MatchSession) attach(participant *entity.Participant, channel ParticipantChannel) error {
	if !that.match.IsWaiting() {
		return apperror.ErrMatchFull
	}

	that.match.Participants = append(that.match.Participants, participant)
	that.channels[participant.ID] = channel

	if len(that.match.Participants) < 2 {
		that.notifyOne(participant.ID, EventWaitingForOpponent, MatchFoundPayload{
			MatchID: that.match.ID,
			Wager:   that.match.Tier,
		})

		return nil
	}

	that.begin()

	return nil
}

// begin assigns marks by coin flip, announces the pairing, and arms the
// countdown. Caller holds the lock.
func (that *MatchSession) begin() {
	marks := []string{entity.MarkX, entity.MarkO}
	if that.rng.Intn(2) == 0 {
		marks[0], marks[1] = marks[1], marks[0]
	}

	for i, participant := range that.match.Participants {
		participant.Mark = marks[i]
	}

	that.match.Status = entity.StatusReady
	that.match.RoundStarter = entity.MarkX
	that.match.Turn = entity.MarkX

	for _, participant := range that.match.Participants {
		that.notifyOne(participant.ID, EventMatchFound, MatchFoundPayload{
			MatchID: that.match.ID,
			Wager:   that.match.Tier,
			Mark:    participant.Mark,
		})
	}

	that.countdownTimer = time.AfterFunc(that.conf.Countdown, that.handleCountdown)

	that.logger.Info("match ready", "tier", that.match.Tier)
}

func (that *MatchSession) handleCountdown() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.match.IsReady() {
		return
	}

	that.match.Status = entity.StatusPlaying
	that.armDeadline(true)
	that.notifyTurn(false)
	that.maybeScheduleBot()
}

// MakeMove validates and applies one placement for the acting participant.
// Rejections never mutate state and are reported only to the caller.
func (that *MatchSession) MakeMove(participantID string, cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.match.IsFinished() {
		return apperror.ErrMatchFinished
	}

	if !that.match.IsPlaying() {
		return apperror.ErrMatchNotPlaying
	}

	participant := that.match.ParticipantByID(participantID)
	if participant == nil {
		return apperror.ErrNotInMatch
	}

	if cell < 0 || cell >= len(that.match.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if participant.Mark != that.match.Turn {
		return apperror.ErrNotYourTurn
	}

	if that.match.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.applyMove(participant.Mark, cell)

	return nil
}

// applyMove places an already-validated mark and drives the transition:
// win, draw-triggered restart, or turn handoff. Caller holds the lock.
func (that *MatchSession) applyMove(mark string, cell int) {
	that.match.Board[cell] = mark
	that.match.Moves++

	result := tictactoe.Evaluate(that.match.Board)

	switch {
	case result.Winner != entity.EmptyCell:
		that.finish(that.match.ParticipantByMark(result.Winner), result.Line[:], false)
	case result.Draw:
		that.restartRound()
	default:
		that.match.Turn = entity.ToggleMark(mark)
		that.armDeadline(false)
		that.notifyTurn(false)
		that.maybeScheduleBot()
	}
}

// restartRound re-enters playing with a cleared board after a draw. The
// other slot starts the new round and gets the first-turn allowance again.
func (that *MatchSession) restartRound() {
	that.match.ResetRound()
	that.armDeadline(true)
	that.notifyTurn(true)
	that.maybeScheduleBot()

	that.logger.Info("round drawn, board reset", "starter", that.match.RoundStarter)
}

// armDeadline cancels the pending deadline and schedules a new one for the
// current mover. The first turn of a fresh round gets the longer allowance.
func (that *MatchSession) armDeadline(firstTurn bool) {
	that.turnEpoch++
	epoch := that.turnEpoch

	if that.turnTimer != nil {
		that.turnTimer.Stop()
	}

	allowance := that.conf.TurnTimeout
	if firstTurn {
		allowance = that.conf.FirstTurnTimeout
	}

	that.match.Deadline = time.Now().Add(allowance)
	that.turnTimer = time.AfterFunc(allowance, func() {
		that.handleTurnTimeout(epoch)
	})
}

// handleTurnTimeout fires when the deadline elapses with no accepted move.
// A stale epoch means a move won the race; the timer treats itself as
// cancelled. A timed-out bot never forfeits: it is forced onto a random
// legal cell. A timed-out human loses on the spot, board untouched.
func (that *MatchSession) handleTurnTimeout(epoch int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if epoch != that.turnEpoch || !that.match.IsPlaying() {
		return
	}

	mover := that.match.ParticipantByMark(that.match.Turn)
	if mover == nil {
		return
	}

	if mover.Bot {
		empty := tictactoe.EmptyCells(that.match.Board)
		cell := empty[that.rng.Intn(len(empty))]

		that.logger.Warn("bot deadline elapsed, forcing random placement", "cell", cell)
		that.applyMove(mover.Mark, cell)

		return
	}

	that.logger.Info("participant timed out, forfeit", "participantID", mover.ID)
	that.finish(that.match.Opponent(mover.ID), nil, true)
}

// HandleDisconnect forfeits the match to the remaining participant. Matches
// still waiting for a second slot are the matchmaker's to discard.
func (that *MatchSession) HandleDisconnect(participantID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.match.IsPlaying() && !that.match.IsReady() {
		return
	}

	leaver := that.match.ParticipantByID(participantID)
	if leaver == nil {
		return
	}

	that.logger.Info("participant disconnected, forfeit", "participantID", participantID)
	that.finish(that.match.Opponent(participantID), nil, true)
}

// finish is the single terminal transition. Settlement and observers run
// off the match lock; the outcome is final before any payout is attempted.
func (that *MatchSession) finish(winner *entity.Participant, line []int, forfeit bool) {
	that.turnEpoch++
	if that.turnTimer != nil {
		that.turnTimer.Stop()
	}
	if that.countdownTimer != nil {
		that.countdownTimer.Stop()
	}

	that.match.Status = entity.StatusFinished
	that.match.Turn = entity.EmptyCell
	that.match.WinningLine = line

	payload := MatchEndedPayload{
		MatchID: that.match.ID,
		Board:   that.match.Board,
		Line:    line,
		Forfeit: forfeit,
	}

	result := &entity.MatchResult{
		MatchID: that.match.ID,
		Tier:    that.match.Tier,
		Line:    line,
		Forfeit: forfeit,
	}

	if winner != nil {
		that.match.Winner = winner.Mark
		payload.Winner = winner.Mark
		payload.WinnerID = winner.ID
		result.Winner = winner
		result.Loser = that.match.Opponent(winner.ID)
	}

	that.notifyAll(EventMatchEnded, payload)

	that.logger.Info("match finished", "winner", payload.Winner, "forfeit", forfeit)

	if that.onResult != nil {
		go that.onResult(result)
	}
}

// maybeScheduleBot arms the bot's move after a short randomized delay so the
// cadence stays plausible. The delayed move is epoch-guarded like any timer.
func (that *MatchSession) maybeScheduleBot() {
	mover := that.match.ParticipantByMark(that.match.Turn)
	if mover == nil || !mover.Bot {
		return
	}

	epoch := that.turnEpoch
	delay := that.conf.BotMoveMin
	if that.conf.BotMoveMax > that.conf.BotMoveMin {
		delay += time.Duration(that.rng.Int63n(int64(that.conf.BotMoveMax - that.conf.BotMoveMin)))
	}

	time.AfterFunc(delay, func() {
		that.handleBotTurn(epoch)
	})
}

func (that *MatchSession) handleBotTurn(epoch int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if epoch != that.turnEpoch || !that.match.IsPlaying() {
		return
	}

	mover := that.match.ParticipantByMark(that.match.Turn)
	if mover == nil || !mover.Bot || that.botSession == nil {
		return
	}

	cell, err := that.botSvc.ChooseCell(that.botSession, that.match.Board, mover.Mark)
	if err != nil {
		that.logger.Error("bot failed to choose a cell", "error", err)
		return
	}

	that.applyMove(mover.Mark, cell)
}

func (that *MatchSession) notifyTurn(restarted bool) {
	that.notifyAll(EventTurnAdvanced, TurnPayload{
		MatchID:   that.match.ID,
		Board:     that.match.Board,
		Turn:      that.match.Turn,
		Moves:     that.match.Moves,
		Deadline:  that.match.Deadline,
		Restarted: restarted,
	})
}

func (that *MatchSession) notifyAll(event string, payload any) {
	for _, participant := range that.match.Participants {
		that.notifyOne(participant.ID, event, payload)
	}
}

func (that *MatchSession) notifyOne(participantID, event string, payload any) {
	channel, ok := that.channels[participantID]
	if !ok {
		return
	}

	if err := channel.Notify(event, payload); err != nil {
		that.logger.Warn("failed to notify participant", "participantID", participantID, "event", event, "error", err)
	}
}
