package engine

import (
	"errors"

	"github.com/XapioBroke/aichessbot/position"
)

var (
	// ErrIllegalMove is shared with the position package so either can be
	// matched with errors.Is.
	ErrIllegalMove = position.ErrIllegalMove

	ErrNoLegalMoves         = errors.New("no legal moves: position is terminal")
	ErrBusy                 = errors.New("a move is already being computed")
	ErrEvaluatorUnavailable = errors.New("evaluator unavailable")
	ErrUnknownDifficulty    = errors.New("unknown difficulty")
)
