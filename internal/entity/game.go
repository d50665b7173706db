package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-promo/internal/apperror"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
	StatusWonByX     Status = "won_by_x"
	StatusWonByO     Status = "won_by_o"
	StatusDrawn      Status = "drawn"
)

// NoCell marks transitions that were not caused by a move.
const NoCell = -1

// Game is the state of a single human vs. computer match.
// Version grows with every mutation and identifies the exact state a pending
// opponent move was computed for.
type Game struct {
	Board   Board  `json:"board"`
	Turn    Mark   `json:"player_turn"`
	Status  Status `json:"status"`
	Winner  Mark   `json:"winner"`
	Version uint64 `json:"version"`
}

// Transition describes one successful mutation of a game.
type Transition struct {
	From Status `json:"from"`
	To   Status `json:"to"`
	Cell int    `json:"cell"`
	Mark Mark   `json:"mark,omitempty"`
	Game Game   `json:"game"`
}

func NewGame() *Game {
	return &Game{
		Turn:   PlayerX,
		Status: StatusIdle,
	}
}

// Start begins a fresh game from any state. X always moves first.
func (that *Game) Start() Transition {
	from := that.Status

	that.Board = Board{}
	that.Turn = PlayerX
	that.Winner = EmptyCell
	that.Status = StatusInProgress
	that.Version++

	return Transition{From: from, To: that.Status, Cell: NoCell, Game: *that}
}

// Reset abandons the current game silently and returns to idle.
func (that *Game) Reset() Transition {
	from := that.Status

	that.Board = Board{}
	that.Turn = PlayerX
	that.Winner = EmptyCell
	that.Status = StatusIdle
	that.Version++

	return Transition{From: from, To: that.Status, Cell: NoCell, Game: *that}
}

// ApplyMove places the mark of the side to move on cell. A rejected move leaves
// the game untouched and returns an error wrapping apperror.ErrMoveRejected.
func (that *Game) ApplyMove(cell int) (Transition, error) {
	if err := that.validateMove(cell); err != nil {
		return Transition{}, fmt.Errorf("%w: %w", apperror.ErrMoveRejected, err)
	}

	from := that.Status
	mover := that.Turn

	that.Board[cell] = mover
	that.Version++

	switch {
	case that.Board.Winner() == mover:
		that.Winner = mover
		that.Status = wonBy(mover)
	case that.Board.IsFull():
		that.Status = StatusDrawn
	default:
		that.Turn = mover.Opponent()
	}

	return Transition{From: from, To: that.Status, Cell: cell, Mark: mover, Game: *that}, nil
}

func (that *Game) validateMove(cell int) error {
	switch {
	case that.IsIdle():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *Game) IsIdle() bool {
	return that.Status == StatusIdle
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsFinished() bool {
	return that.Status.IsTerminal()
}

// IsTerminal reports whether no further moves are accepted without a restart.
func (that Status) IsTerminal() bool {
	switch that {
	case StatusWonByX, StatusWonByO, StatusDrawn:
		return true
	default:
		return false
	}
}

// IsTerminalEntry reports whether the transition moved a running game into a final state.
func (that Transition) IsTerminalEntry() bool {
	return that.From == StatusInProgress && that.To.IsTerminal()
}

func wonBy(mark Mark) Status {
	if mark == PlayerX {
		return StatusWonByX
	}
	return StatusWonByO
}
