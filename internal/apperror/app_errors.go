package apperror

import "errors"

var (
	ErrMatchNotPlaying = errors.New("match is not in play")
	ErrMatchFinished   = errors.New("match is already finished")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrMatchFull       = errors.New("match already has two participants")
	ErrNotInMatch      = errors.New("participant is not in this match")
	ErrAlreadyInMatch  = errors.New("participant is already in a match")
	ErrUnknownTier     = errors.New("unknown wager tier")
)
