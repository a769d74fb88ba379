package entity

import "time"

const (
	StatusWaiting  = "waiting"
	StatusReady    = "ready"
	StatusPlaying  = "playing"
	StatusFinished = "finished"

	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	BoardSize = 9
)

// Match holds one wagered match: two participant slots, the board,
// and the turn bookkeeping the state machine mutates.
type Match struct {
	ID           string         `json:"id"`
	Tier         int64          `json:"tier"`
	Board        [9]string      `json:"board"`
	Status       string         `json:"status"`
	Turn         string         `json:"turn"`
	RoundStarter string         `json:"round_starter"`
	Winner       string         `json:"winner,omitempty"`
	WinningLine  []int          `json:"winning_line,omitempty"`
	Moves        int            `json:"moves"`
	Deadline     time.Time      `json:"deadline"`
	Participants []*Participant `json:"participants,omitempty"`
}

func NewMatch(id string, tier int64) *Match {
	return &Match{
		ID:     id,
		Tier:   tier,
		Status: StatusWaiting,
	}
}

func (that *Match) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Match) IsReady() bool {
	return that.Status == StatusReady
}

func (that *Match) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Match) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Match) ParticipantByID(id string) *Participant {
	for _, participant := range that.Participants {
		if participant.ID == id {
			return participant
		}
	}

	return nil
}

func (that *Match) ParticipantByMark(mark string) *Participant {
	for _, participant := range that.Participants {
		if participant.Mark == mark {
			return participant
		}
	}

	return nil
}

// Opponent returns the other slot's participant.
func (that *Match) Opponent(id string) *Participant {
	for _, participant := range that.Participants {
		if participant.ID != id {
			return participant
		}
	}

	return nil
}

// ResetRound clears the board for a draw-triggered restart. The slot that
// did NOT start the finished round starts the next one.
func (that *Match) ResetRound() {
	that.Board = [9]string{}
	that.Moves = 0
	that.RoundStarter = ToggleMark(that.RoundStarter)
	that.Turn = that.RoundStarter
}

func ToggleMark(mark string) string {
	if mark == MarkX {
		return MarkO
	}

	return MarkX
}

// MatchResult is the terminal outcome handed to result observers.
// Winner is nil when nobody won (a match abandoned before it began).
type MatchResult struct {
	MatchID string
	Tier    int64
	Winner  *Participant
	Loser   *Participant
	Line    []int
	Forfeit bool
}
