package bot

import "tictacchec/internal/domain"

// Actions enumerates every legal action for the side to move, in search order:
// placements first (ascending cell, then pool kind in canonical order), then,
// in the flexible phase, moves sorted by source and then destination.
func Actions(g *domain.Game) []domain.Action {
	if g.Terminal() {
		return nil
	}
	side := g.Turn
	kinds := g.Pools[side].Kinds()

	out := make([]domain.Action, 0, domain.CellCount*len(kinds))
	for cell := 0; cell < domain.CellCount; cell++ {
		if !g.Board.IsEmpty(cell) {
			continue
		}
		for _, k := range kinds {
			out = append(out, domain.Place(k, cell))
		}
	}

	if g.Phase() != domain.PhaseFlexible {
		return out
	}
	for from := 0; from < domain.CellCount; from++ {
		p, ok := g.Board.At(from)
		if !ok || p.Owner != side {
			continue
		}
		for to := 0; to < domain.CellCount; to++ {
			if domain.ValidateMove(&g.Board, side, from, to) == nil {
				out = append(out, domain.Move(from, to))
			}
		}
	}
	return out
}
