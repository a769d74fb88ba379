package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
)

func TestEvaluate(t *testing.T) {
	t.Run("Reports a row winner with its line", func(t *testing.T) {
		// Given: a board where X holds the top row
		board := [9]string{
			entity.MarkX, entity.MarkX, entity.MarkX,
			entity.MarkO, entity.MarkO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: evaluating the board
		result := Evaluate(board)

		// Then: X wins on the top row, and the result is not a draw
		assert.Equal(t, entity.MarkX, result.Winner)
		assert.Equal(t, [3]int{0, 1, 2}, result.Line)
		assert.False(t, result.Draw)
		assert.True(t, result.Finished())
	})

	t.Run("Reports a diagonal winner", func(t *testing.T) {
		// Given: a board where O holds the anti-diagonal
		board := [9]string{
			entity.MarkX, entity.MarkX, entity.MarkO,
			entity.MarkX, entity.MarkO, entity.EmptyCell,
			entity.MarkO, entity.EmptyCell, entity.EmptyCell,
		}

		// When: evaluating the board
		result := Evaluate(board)

		// Then: O wins on the 2-4-6 diagonal
		assert.Equal(t, entity.MarkO, result.Winner)
		assert.Equal(t, [3]int{2, 4, 6}, result.Line)
	})

	t.Run("Reports a draw when the board is full with no winner", func(t *testing.T) {
		// Given: a full board with no three-in-a-row
		board := [9]string{
			entity.MarkX, entity.MarkO, entity.MarkX,
			entity.MarkO, entity.MarkX, entity.MarkO,
			entity.MarkO, entity.MarkX, entity.MarkO,
		}

		// When: evaluating the board
		result := Evaluate(board)

		// Then: it is a draw with no winner
		assert.True(t, result.Draw)
		assert.Equal(t, entity.EmptyCell, result.Winner)
		assert.True(t, result.Finished())
	})

	t.Run("Reports ongoing when empty cells remain and no line is complete", func(t *testing.T) {
		// Given: a partially filled board
		board := [9]string{
			entity.MarkX, entity.MarkO, entity.EmptyCell,
			entity.EmptyCell, entity.MarkX, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.MarkO,
		}

		// When: evaluating the board
		result := Evaluate(board)

		// Then: neither winner nor draw
		assert.Equal(t, entity.EmptyCell, result.Winner)
		assert.False(t, result.Draw)
		assert.False(t, result.Finished())
	})

	t.Run("Never reports both a winner and a draw over all single-line boards", func(t *testing.T) {
		// Given: each of the 8 winning combos filled for X on an otherwise empty board
		for _, combo := range WinCombos {
			board := [9]string{}
			for _, cell := range combo {
				board[cell] = entity.MarkX
			}

			// When: evaluating the board
			result := Evaluate(board)

			// Then: X is the winner, and the result is not also a draw
			require.Equal(t, entity.MarkX, result.Winner)
			require.False(t, result.Draw)
		}
	})
}

func TestWinningCell(t *testing.T) {
	t.Run("Finds the cell completing a line", func(t *testing.T) {
		// Given: X holds two cells of the top row
		board := [9]string{
			entity.MarkX, entity.MarkX, entity.EmptyCell,
			entity.MarkO, entity.MarkO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: searching each mark's immediate win
		// Then: both sides have one
		assert.Equal(t, 2, WinningCell(board, entity.MarkX))
		assert.Equal(t, 5, WinningCell(board, entity.MarkO))
	})

	t.Run("Returns -1 when no immediate win exists", func(t *testing.T) {
		// Given: an empty board
		board := [9]string{}

		// When: searching for an immediate win
		// Then: there is none
		assert.Equal(t, -1, WinningCell(board, entity.MarkX))
	})
}

func TestWinningCells(t *testing.T) {
	t.Run("A double threat yields both completing cells", func(t *testing.T) {
		// Given: O threatens the top row and the left column at once
		board := [9]string{
			entity.MarkO, entity.MarkO, entity.EmptyCell,
			entity.MarkO, entity.MarkX, entity.MarkX,
			entity.EmptyCell, entity.EmptyCell, entity.MarkX,
		}

		// When: collecting O's winning cells
		cells := WinningCells(board, entity.MarkO)

		// Then: both forks are reported
		assert.ElementsMatch(t, []int{2, 6}, cells)
	})

	t.Run("Reports nothing without an immediate win", func(t *testing.T) {
		// Given: an empty board
		board := [9]string{}

		// When: collecting winning cells
		// Then: there are none
		assert.Empty(t, WinningCells(board, entity.MarkX))
	})
}

func TestBestCells(t *testing.T) {
	t.Run("Prefers the immediate win", func(t *testing.T) {
		// Given: X can complete the top row
		board := [9]string{
			entity.MarkX, entity.MarkX, entity.EmptyCell,
			entity.MarkO, entity.MarkO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: running the search for X
		best := BestCells(board, entity.MarkX)

		// Then: the winning cell is the unique optimal move
		require.Equal(t, []int{2}, best)
	})

	t.Run("Blocks the opponent's only winning line", func(t *testing.T) {
		// Given: O threatens the middle row and X has no win of its own
		board := [9]string{
			entity.MarkX, entity.EmptyCell, entity.EmptyCell,
			entity.MarkO, entity.MarkO, entity.EmptyCell,
			entity.MarkX, entity.EmptyCell, entity.EmptyCell,
		}

		// When: running the search for X
		best := BestCells(board, entity.MarkX)

		// Then: blocking cell 5 is the unique optimal move
		require.Equal(t, []int{5}, best)
	})

	t.Run("Returns every tie on an empty board", func(t *testing.T) {
		// Given: an empty board, where perfect play always draws
		board := [9]string{}

		// When: running the search for X
		best := BestCells(board, entity.MarkX)

		// Then: all nine openings are equally optimal
		assert.Len(t, best, 9)
	})

	t.Run("Returns nothing on a terminal board", func(t *testing.T) {
		// Given: a board X has already won
		board := [9]string{
			entity.MarkX, entity.MarkX, entity.MarkX,
			entity.MarkO, entity.MarkO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}

		// When: running the search for O
		best := BestCells(board, entity.MarkO)

		// Then: there is no move to make
		assert.Empty(t, best)
	})
}
