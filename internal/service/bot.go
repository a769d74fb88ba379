package service

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/HyPolar/tic-tac-toe-backend/internal/config"
	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/tictactoe"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotSession is the per-match state of an automated opponent. The verdict is
// fixed at creation; the session then tracks how far the match has drifted
// toward a draw and whether the deliberate blunder has been spent.
type BotSession struct {
	mustWin       bool
	drawTolerance int
	blunderAfter  int

	moves         int
	drawRounds    int
	drawSeen      bool
	blunderPlayed bool
}

func (that *BotSession) MustWin() bool {
	return that.mustWin
}

type BotService interface {
	NewSession(mustWin bool) *BotSession
	ChooseCell(session *BotSession, board [9]string, mark string) (int, error)
}

type botService struct {
	conf config.Bot

	mu  sync.Mutex
	rng *rand.Rand

	logger *slog.Logger
}

func NewBotService(logger *slog.Logger, conf config.Bot, rng *rand.Rand) BotService {
	return &botService{
		logger: logger.With("component", "bot"),
		conf:   conf,
		rng:    rng,
	}
}

// NewSession pre-draws the session's randomized thresholds: how many drawn
// rounds it tolerates before forcing the verdict and, for must-lose, after
// how many of its own placements it commits the blunder.
func (that *botService) NewSession(mustWin bool) *BotSession {
	that.mu.Lock()
	defer that.mu.Unlock()

	session := &BotSession{mustWin: mustWin}

	if mustWin {
		session.drawTolerance = that.intBetween(that.conf.MustWinDrawToleranceMin, that.conf.MustWinDrawToleranceMax)
	} else {
		session.drawTolerance = that.intBetween(that.conf.MustLoseDrawToleranceMin, that.conf.MustLoseDrawToleranceMax)
		session.blunderAfter = that.intBetween(that.conf.BlunderDelayMin, that.conf.BlunderDelayMax)
	}

	return session
}

// ChooseCell picks the bot's next placement. It only ever selects among
// currently-empty cells.
func (that *botService) ChooseCell(session *BotSession, board [9]string, mark string) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	empty := tictactoe.EmptyCells(board)
	if len(empty) == 0 {
		return -1, ErrNoAvailableMoves
	}

	session.moves++
	that.trackDrawProgress(session, board)

	if session.mustWin {
		return that.mustWinCell(session, board, mark), nil
	}

	return that.mustLoseCell(session, board, mark), nil
}

// trackDrawProgress counts a drawn round once per round: a board with at
// least 5 cells filled and no winner. The flag re-arms when the board
// empties out again after a draw-triggered restart.
func (that *botService) trackDrawProgress(session *BotSession, board [9]string) {
	filled := tictactoe.FilledCells(board)
	if filled < 5 {
		session.drawSeen = false
		return
	}

	if !session.drawSeen && tictactoe.Evaluate(board).Winner == entity.EmptyCell {
		session.drawSeen = true
		session.drawRounds++
	}
}

// mustWinCell: take the win, else block, else minimax, with an occasional
// random cell so the play does not look inhumanly perfect. Once the drawn
// round tolerance is exhausted the mistakes stop.
func (that *botService) mustWinCell(session *BotSession, board [9]string, mark string) int {
	if cell := tictactoe.WinningCell(board, mark); cell >= 0 {
		return cell
	}

	if cell := tictactoe.WinningCell(board, entity.ToggleMark(mark)); cell >= 0 {
		return cell
	}

	forced := session.drawRounds >= session.drawTolerance
	if !forced && that.rng.Float64() < that.conf.MistakeChance {
		return that.randomCell(board)
	}

	best := tictactoe.BestCells(board, mark)

	return best[that.rng.Intn(len(best))]
}

// mustLoseCell keeps the game competitive without ever completing its own
// line, commits one delayed blunder, and abandons blocking entirely once the
// drawn-round tolerance fires. Every branch excludes the full set of cells
// that would finish the bot's own line; when the only block is such a cell,
// the block is skipped and the immediate loss stands.
func (that *botService) mustLoseCell(session *BotSession, board [9]string, mark string) int {
	opponent := entity.ToggleMark(mark)
	ownWins := tictactoe.WinningCells(board, mark)

	if session.drawRounds >= session.drawTolerance {
		return that.abandoningCell(board, mark, ownWins)
	}

	if !session.blunderPlayed && session.moves > session.blunderAfter {
		if cell := that.blunderCell(board, mark, ownWins); cell >= 0 {
			session.blunderPlayed = true
			return cell
		}
	}

	if cell := tictactoe.WinningCell(board, opponent); cell >= 0 && !containsCell(ownWins, cell) {
		// A single lapse, not a collapse: after the blunder the bot blocks
		// again; before it, blocks are occasionally missed.
		missed := !session.blunderPlayed && that.rng.Float64() < that.conf.MissBlockChance
		if !missed {
			return cell
		}
	}

	return that.safeCell(board, mark, ownWins)
}

// blunderCell searches for a placement that hands the opponent an immediate
// winning reply, preferring the center and corners so the lapse looks
// plausible. Returns -1 when the position offers no such move yet.
func (that *botService) blunderCell(board [9]string, mark string, ownWins []int) int {
	opponent := entity.ToggleMark(mark)

	var candidates, preferred []int

	for _, cell := range tictactoe.EmptyCells(board) {
		if containsCell(ownWins, cell) {
			continue
		}

		board[cell] = mark
		handsWin := tictactoe.WinningCell(board, opponent) >= 0
		board[cell] = entity.EmptyCell

		if !handsWin {
			continue
		}

		candidates = append(candidates, cell)
		if isCenterOrCorner(cell) {
			preferred = append(preferred, cell)
		}
	}

	if len(preferred) > 0 {
		return preferred[that.rng.Intn(len(preferred))]
	}

	if len(candidates) > 0 {
		return candidates[that.rng.Intn(len(candidates))]
	}

	return -1
}

// abandoningCell plays the forced-loss move: never its own win, and never
// the cell that would block the opponent's winning line. When only the block
// remains it is played anyway, since it cannot win the match for the bot.
func (that *botService) abandoningCell(board [9]string, mark string, ownWins []int) int {
	block := tictactoe.WinningCell(board, entity.ToggleMark(mark))

	var candidates, blocks []int
	for _, cell := range tictactoe.EmptyCells(board) {
		if containsCell(ownWins, cell) {
			continue
		}

		if cell == block {
			blocks = append(blocks, cell)
			continue
		}

		candidates = append(candidates, cell)
	}

	if len(candidates) > 0 {
		return candidates[that.rng.Intn(len(candidates))]
	}

	if len(blocks) > 0 {
		return blocks[0]
	}

	return that.randomCell(board)
}

// safeCell plays a strong but non-winning move.
func (that *botService) safeCell(board [9]string, mark string, ownWins []int) int {
	var candidates []int
	for _, cell := range tictactoe.BestCells(board, mark) {
		if !containsCell(ownWins, cell) {
			candidates = append(candidates, cell)
		}
	}

	if len(candidates) == 0 {
		for _, cell := range tictactoe.EmptyCells(board) {
			if !containsCell(ownWins, cell) {
				candidates = append(candidates, cell)
			}
		}
	}

	if len(candidates) == 0 {
		// Every remaining cell completes the bot's own line; unavoidable.
		return that.randomCell(board)
	}

	return candidates[that.rng.Intn(len(candidates))]
}

func (that *botService) randomCell(board [9]string) int {
	empty := tictactoe.EmptyCells(board)

	return empty[that.rng.Intn(len(empty))]
}

func (that *botService) intBetween(minVal, maxVal int) int {
	if maxVal <= minVal {
		return minVal
	}

	return minVal + that.rng.Intn(maxVal-minVal+1)
}

func containsCell(cells []int, cell int) bool {
	for _, c := range cells {
		if c == cell {
			return true
		}
	}

	return false
}

func isCenterOrCorner(cell int) bool {
	switch cell {
	case 0, 2, 4, 6, 8:
		return true
	}

	return false
}
