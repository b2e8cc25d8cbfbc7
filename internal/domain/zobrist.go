package domain

// zobristTable holds one random key per (cell, owner, kind, facing), one per
// pooled (owner, kind), and one for Second to move.
type zobristTable struct {
	pieces [CellCount][2][KindCount][2]uint64
	pooled [2][KindCount]uint64
	second uint64
}

var zobrist = newZobristTable(0x7ac3c4ec)

func newZobristTable(seed uint64) *zobristTable {
	rng := splitmix64{state: seed}
	z := &zobristTable{}
	for c := range z.pieces {
		for o := range z.pieces[c] {
			for k := range z.pieces[c][o] {
				for f := range z.pieces[c][o][k] {
					z.pieces[c][o][k][f] = rng.next()
				}
			}
		}
	}
	for o := range z.pooled {
		for k := range z.pooled[o] {
			z.pooled[o][k] = rng.next()
		}
	}
	z.second = rng.next()
	return z
}

// Hash returns the Zobrist key of (board, pools, turn). Games that differ only
// in history or result share a key.
func (g *Game) Hash() uint64 {
	var h uint64
	for cell, p := range g.Board {
		if p.Empty() {
			continue
		}
		facing := 0
		if p.Facing < 0 {
			facing = 1
		}
		h ^= zobrist.pieces[cell][p.Owner][p.Kind-1][facing]
	}
	for side, pool := range g.Pools {
		for k, n := range pool {
			// Counts never exceed one in a consistent game.
			if n > 0 {
				h ^= zobrist.pooled[side][k]
			}
		}
	}
	if g.Turn == Second {
		h ^= zobrist.second
	}
	return h
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
