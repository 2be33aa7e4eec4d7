package game

import "errors"

var (
	ErrInvalidName         = errors.New("name must not be empty")
	ErrSessionFull         = errors.New("session is full")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrGameNotStarted      = errors.New("game has not started")
	ErrGameEnded           = errors.New("game already ended")
	ErrNotHost             = errors.New("only the host may do that")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrInvalidPhase        = errors.New("action not allowed in this phase")
	ErrPlayerDead          = errors.New("dead players cannot act")
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrUnknownTarget       = errors.New("unknown target")
	ErrUnsupportedCommand  = errors.New("unsupported command")
)
