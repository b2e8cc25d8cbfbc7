package domain

import "errors"

// Rule violations. All are recoverable; a rejected action never mutates the game.
var (
	ErrInvalidTarget    = errors.New("invalid target cell")
	ErrPieceUnavailable = errors.New("piece not in pool")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrIllegalGeometry  = errors.New("illegal move for piece")
	ErrGameOver         = errors.New("game is over")
	ErrPhaseViolation   = errors.New("moves are not allowed during placement")

	// ErrInternal reports a broken invariant; the game is left at its pre-action state.
	ErrInternal = errors.New("internal rules error")
)
