package protocol

import (
	"fmt"

	"tictacchec/internal/domain"
)

// PieceView is a placed piece on the wire.
type PieceView struct {
	Owner  string `json:"owner"`
	Kind   string `json:"kind"`
	Facing int8   `json:"facing,omitempty"`
}

// ResultView reports the game outcome. Winner is set only for a win.
type ResultView struct {
	Status string  `json:"status"`
	Winner string  `json:"winner,omitempty"`
	Line   []Coord `json:"line,omitempty"`
}

// GameSnapshot is the full, self-contained state of a game as sent to
// clients. Board rows run top to bottom; empty cells are null.
type GameSnapshot struct {
	Board     [domain.Size][domain.Size]*PieceView `json:"board"`
	Pools     map[string][]string                  `json:"pools"`
	Turn      string                               `json:"turn"`
	Phase     string                               `json:"phase"`
	Result    ResultView                           `json:"result"`
	MoveCount int                                  `json:"move_count"`
}

// SnapshotOf renders g for the wire.
func SnapshotOf(g *domain.Game) *GameSnapshot {
	if g == nil {
		return nil
	}
	s := &GameSnapshot{
		Pools:     make(map[string][]string, 2),
		Turn:      g.Turn.String(),
		Phase:     g.Phase().String(),
		Result:    ResultView{Status: g.Result.Outcome.String()},
		MoveCount: len(g.History),
	}
	for cell, p := range g.Board {
		if p.Empty() {
			continue
		}
		s.Board[domain.Row(cell)][domain.Col(cell)] = &PieceView{
			Owner:  p.Owner.String(),
			Kind:   p.Kind.String(),
			Facing: p.Facing,
		}
	}
	for _, side := range []domain.Side{domain.First, domain.Second} {
		kinds := g.Pool(side).Kinds()
		names := make([]string, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, k.String())
		}
		s.Pools[side.String()] = names
	}
	if g.Result.Outcome == domain.Win {
		s.Result.Winner = g.Result.Winner.String()
		if line, ok := domain.WinningLine(&g.Board); ok {
			for _, cell := range line {
				s.Result.Line = append(s.Result.Line, CoordOf(cell))
			}
		}
	}
	return s
}

// Game rebuilds a domain game from the snapshot. History is not carried on the
// wire, so the result is positionally equal to the source game.
func (s *GameSnapshot) Game() (*domain.Game, error) {
	turn, ok := domain.ParseSide(s.Turn)
	if !ok {
		return nil, fmt.Errorf("%w: turn %q", ErrMalformed, s.Turn)
	}
	var board domain.Board
	for row := range s.Board {
		for col, pv := range s.Board[row] {
			if pv == nil {
				continue
			}
			owner, ok := domain.ParseSide(pv.Owner)
			if !ok {
				return nil, fmt.Errorf("%w: owner %q", ErrMalformed, pv.Owner)
			}
			kind, ok := domain.ParsePieceKind(pv.Kind)
			if !ok {
				return nil, fmt.Errorf("%w: kind %q", ErrMalformed, pv.Kind)
			}
			board[domain.CellAt(row, col)] = domain.Piece{Owner: owner, Kind: kind, Facing: pv.Facing}
		}
	}
	g, err := domain.FromBoard(board, turn)
	if err != nil {
		return nil, err
	}
	if s.Result.Status == domain.Win.String() && !g.Terminal() {
		// Forfeits end the game without a line on the board.
		winner, ok := domain.ParseSide(s.Result.Winner)
		if !ok {
			return nil, fmt.Errorf("%w: winner %q", ErrMalformed, s.Result.Winner)
		}
		g.Result = domain.Result{Outcome: domain.Win, Winner: winner}
	}
	return g, nil
}
