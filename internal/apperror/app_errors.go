package apperror

import "errors"

var (
	ErrMoveRejected     = errors.New("move rejected")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")

	ErrNoIdentity       = errors.New("user identity is missing")
	ErrNotFound         = errors.New("not found")
	ErrBotNotConfigured = errors.New("bot token is not configured")
	ErrInvalidIdentity  = errors.New("invalid delivery identity")
)
