package tictactoe

import "github.com/HyPolar/tic-tac-toe-backend/internal/entity"

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Result is the verdict for a board: a winner with its line, a draw,
// or neither (the game goes on).
type Result struct {
	Winner string
	Line   [3]int
	Draw   bool
}

func (that Result) Finished() bool {
	return that.Winner != entity.EmptyCell || that.Draw
}

// Evaluate checks the 8 standard lines for three-of-a-kind; with no winner
// and no empty cell left it reports a draw. Total over any 9-cell board.
func Evaluate(board [9]string) Result {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Result{Winner: a, Line: combo}
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return Result{}
		}
	}

	return Result{Draw: true}
}

func EmptyCells(board [9]string) []int {
	cells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == entity.EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func FilledCells(board [9]string) int {
	return len(board) - len(EmptyCells(board))
}

// WinningCell returns a cell that completes a line for the given mark,
// or -1 when no immediate win exists.
func WinningCell(board [9]string, mark string) int {
	for _, cell := range EmptyCells(board) {
		board[cell] = mark
		if Evaluate(board).Winner == mark {
			return cell
		}
		board[cell] = entity.EmptyCell
	}

	return -1
}

// WinningCells returns every empty cell that completes a line for the given
// mark. A double threat yields more than one.
func WinningCells(board [9]string, mark string) []int {
	var cells []int

	for _, cell := range EmptyCells(board) {
		board[cell] = mark
		if Evaluate(board).Winner == mark {
			cells = append(cells, cell)
		}
		board[cell] = entity.EmptyCell
	}

	return cells
}
