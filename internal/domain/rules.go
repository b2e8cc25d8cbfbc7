package domain

import "fmt"

// Apply validates action a for side and returns the successor game. g is never
// modified. Apply neither detects the outcome nor passes the turn; Play does both.
func Apply(g *Game, side Side, a Action) (*Game, error) {
	if g.Terminal() {
		return nil, ErrGameOver
	}
	if side != g.Turn {
		return nil, ErrNotYourTurn
	}

	switch a.Kind {
	case ActionPlace:
		return applyPlace(g, side, a)
	case ActionMove:
		return applyMove(g, side, a)
	default:
		return nil, fmt.Errorf("%w: unknown action kind %d", ErrInvalidTarget, a.Kind)
	}
}

func applyPlace(g *Game, side Side, a Action) (*Game, error) {
	if !ValidCell(a.To) || !g.Board.IsEmpty(a.To) {
		return nil, ErrInvalidTarget
	}
	if !g.Pools[side].Has(a.Piece) {
		return nil, ErrPieceUnavailable
	}

	next := g.Clone()
	if !next.Pools[side].take(a.Piece) {
		return nil, fmt.Errorf("%w: pool lost %s", ErrInternal, a.Piece)
	}
	piece := Piece{Owner: side, Kind: a.Piece}
	if a.Piece == Pawn {
		piece.Facing = placementFacing(side, Row(a.To))
	}
	next.Board[a.To] = piece
	next.History = append(next.History, a)

	if err := next.verify(); err != nil {
		return nil, err
	}
	return next, nil
}

func applyMove(g *Game, side Side, a Action) (*Game, error) {
	if g.Phase() != PhaseFlexible {
		return nil, ErrPhaseViolation
	}
	if err := ValidateMove(&g.Board, side, a.From, a.To); err != nil {
		return nil, err
	}

	next := g.Clone()
	mover := next.Board[a.From]
	if captured, ok := next.Board.At(a.To); ok {
		next.Pools[captured.Owner].give(captured.Kind)
	}
	next.Board[a.From] = Piece{}
	if mover.Kind == Pawn && (Row(a.To) == 0 || Row(a.To) == Size-1) {
		mover.Facing = -mover.Facing
	}
	next.Board[a.To] = mover
	next.History = append(next.History, a)

	if err := next.verify(); err != nil {
		return nil, err
	}
	return next, nil
}

// ValidateMove checks a move of side's piece on b from one cell to another,
// without regard to phase or turn.
func ValidateMove(b *Board, side Side, from, to int) error {
	if !ValidCell(from) || !ValidCell(to) {
		return ErrInvalidTarget
	}
	mover, ok := b.At(from)
	if !ok || mover.Owner != side {
		return ErrInvalidTarget
	}
	if from == to {
		return ErrInvalidTarget
	}
	if target, ok := b.At(to); ok && target.Owner == side {
		return ErrInvalidTarget
	}
	if !reachable(b, mover, from, to) {
		return ErrIllegalGeometry
	}
	return nil
}

// placementFacing returns the facing of a pawn placed by side on row. First
// faces toward the last row and Second toward row 0; a pawn placed on the
// edge it faces is turned around so it always has a forward cell.
func placementFacing(side Side, row int) int8 {
	f := int8(1)
	if side == Second {
		f = -1
	}
	if (f > 0 && row == Size-1) || (f < 0 && row == 0) {
		f = -f
	}
	return f
}

func reachable(b *Board, p Piece, from, to int) bool {
	dr := Row(to) - Row(from)
	dc := Col(to) - Col(from)

	switch p.Kind {
	case Rook:
		if dr != 0 && dc != 0 {
			return false
		}
		return pathClear(b, from, dr, dc)
	case Bishop:
		if abs(dr) != abs(dc) {
			return false
		}
		return pathClear(b, from, dr, dc)
	case Knight:
		return (abs(dr) == 1 && abs(dc) == 2) || (abs(dr) == 2 && abs(dc) == 1)
	case Pawn:
		if dr != int(p.Facing) {
			return false
		}
		if dc == 0 {
			return b.IsEmpty(to)
		}
		// Diagonal steps only capture; the owner check already ran.
		return abs(dc) == 1 && !b.IsEmpty(to)
	default:
		return false
	}
}

// pathClear reports whether every cell strictly between from and from+(dr,dc)
// is empty.
func pathClear(b *Board, from, dr, dc int) bool {
	steps := abs(dr)
	if abs(dc) > steps {
		steps = abs(dc)
	}
	sr, sc := sign(dr), sign(dc)
	r, c := Row(from), Col(from)
	for i := 1; i < steps; i++ {
		if !b.IsEmpty(CellAt(r+sr*i, c+sc*i)) {
			return false
		}
	}
	return true
}

// verify checks piece conservation: every kind of every side is either on
// the board or in the pool, exactly once.
func (g *Game) verify() error {
	for _, side := range [...]Side{First, Second} {
		for _, k := range Kinds {
			n := int(g.Pools[side][k-1])
			if g.Board.Find(side, k) >= 0 {
				n++
			}
			if n != 1 {
				return fmt.Errorf("%w: %s %s counted %d times", ErrInternal, side, k, n)
			}
		}
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
