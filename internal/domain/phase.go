package domain

// Phase is derived from the board on every query; it is never stored.
type Phase uint8

const (
	// PhasePlacement allows only placements.
	PhasePlacement Phase = iota
	// PhaseFlexible allows a placement or a move each turn.
	PhaseFlexible
)

// FlexibleThreshold is the number of on-board pieces both sides need before
// moves are allowed.
const FlexibleThreshold = 3

func (p Phase) String() string {
	if p == PhaseFlexible {
		return "flexible"
	}
	return "placement"
}

// Phase reports the current phase of g. A capture that leaves a side below
// FlexibleThreshold returns the game to placement until that side has three
// pieces out again; the captured side moves next and holds the returned piece.
func (g *Game) Phase() Phase {
	if g.Board.CountOwned(First) >= FlexibleThreshold && g.Board.CountOwned(Second) >= FlexibleThreshold {
		return PhaseFlexible
	}
	return PhasePlacement
}

// Advance records the outcome of the board on g, or passes the turn when the
// game goes on. It is a no-op on a finished game.
func Advance(g *Game) {
	if g.Terminal() {
		return
	}
	if r := Detect(&g.Board); r.Terminal() {
		g.Result = r
		return
	}
	g.Turn = g.Turn.Opponent()
}

// Play applies a for side, then detects the outcome and passes the turn.
func Play(g *Game, side Side, a Action) (*Game, error) {
	next, err := Apply(g, side, a)
	if err != nil {
		return nil, err
	}
	Advance(next)
	return next, nil
}

// Replay plays actions from a fresh game, alternating sides from First.
func Replay(actions []Action) (*Game, error) {
	g := NewGame()
	for _, a := range actions {
		next, err := Play(g, g.Turn, a)
		if err != nil {
			return nil, err
		}
		g = next
	}
	return g, nil
}
