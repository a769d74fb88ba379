package tictactoe

import "github.com/HyPolar/tic-tac-toe-backend/internal/entity"

// BestCells runs an exhaustive minimax over the remaining game tree (at most
// 9 plies) and returns every equally-optimal cell for the given mark, so the
// caller can break ties with its own randomness. An empty slice means the
// board is already terminal.
func BestCells(board [9]string, mark string) []int {
	empty := EmptyCells(board)
	if len(empty) == 0 || Evaluate(board).Finished() {
		return nil
	}

	best := make([]int, 0, len(empty))
	bestScore := -100

	for _, cell := range empty {
		board[cell] = mark
		score := minimax(board, entity.ToggleMark(mark), mark, 1)
		board[cell] = entity.EmptyCell

		switch {
		case score > bestScore:
			bestScore = score
			best = append(best[:0], cell)
		case score == bestScore:
			best = append(best, cell)
		}
	}

	return best
}

// minimax scores a position from the target mark's perspective: quicker wins
// score higher, later losses score higher than early ones, draws are zero.
func minimax(board [9]string, mover, target string, depth int) int {
	result := Evaluate(board)

	switch {
	case result.Winner == target:
		return 10 - depth
	case result.Winner != entity.EmptyCell:
		return depth - 10
	case result.Draw:
		return 0
	}

	if mover == target {
		best := -100
		for _, cell := range EmptyCells(board) {
			board[cell] = mover
			if score := minimax(board, entity.ToggleMark(mover), target, depth+1); score > best {
				best = score
			}
			board[cell] = entity.EmptyCell
		}

		return best
	}

	worst := 100
	for _, cell := range EmptyCells(board) {
		board[cell] = mover
		if score := minimax(board, entity.ToggleMark(mover), target, depth+1); score < worst {
			worst = score
		}
		board[cell] = entity.EmptyCell
	}

	return worst
}
