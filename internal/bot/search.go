package bot

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tictacchec/internal/domain"
)

const (
	// WinScore is the base score of a won game; the ply count to the win is
	// subtracted so faster wins rank higher.
	WinScore = 1000
	// DefaultPlies is the search horizon used when none is configured.
	DefaultPlies = 2
	// MaxPlies bounds configurable search depth.
	MaxPlies = 8
	// DefaultCacheSize is the transposition cache capacity in entries.
	DefaultCacheSize = 1 << 16
)

// ErrNoAction is returned when the side to move has no legal action.
var ErrNoAction = errors.New("no legal action")

// Decision is the outcome of a search.
type Decision struct {
	Action domain.Action
	Score  int
	// Depth is the horizon of the last completed iteration.
	Depth int
	Nodes int
}

// Searcher runs depth-bounded minimax with alpha-beta pruning.
type Searcher struct {
	Plies int
	// Deepening searches horizons 1..Plies in turn, reusing a transposition
	// cache. A cancelled search then returns the last completed horizon.
	Deepening bool
	CacheSize int
}

// NewSearcher returns a Searcher with the given horizon.
func NewSearcher(plies int) *Searcher {
	return &Searcher{Plies: plies}
}

// SelectAction picks an action for side on a private copy of g with a plain
// fixed-horizon search.
func SelectAction(ctx context.Context, g *domain.Game, side domain.Side, maxPly int) (domain.Action, error) {
	d, err := NewSearcher(maxPly).Search(ctx, g, side)
	if err != nil {
		return domain.Action{}, err
	}
	return d.Action, nil
}

// Search returns the best action for side. Ties go to the action enumerated
// first by Actions.
func (s *Searcher) Search(ctx context.Context, g *domain.Game, side domain.Side) (Decision, error) {
	if g.Terminal() {
		return Decision{}, domain.ErrGameOver
	}
	if g.Turn != side {
		return Decision{}, domain.ErrNotYourTurn
	}
	plies := s.Plies
	if plies <= 0 {
		plies = DefaultPlies
	}
	if plies > MaxPlies {
		plies = MaxPlies
	}

	root := g.Clone()
	root.History = nil
	actions := Actions(root)
	if len(actions) == 0 {
		return Decision{}, ErrNoAction
	}

	if !s.Deepening {
		run := &searchRun{ctx: ctx, root: side}
		return run.searchRoot(root, actions, plies)
	}

	cache, err := newTranspositionCache(s.CacheSize)
	if err != nil {
		return Decision{}, fmt.Errorf("transposition cache: %w", err)
	}
	var best Decision
	nodes := 0
	for depth := 1; depth <= plies; depth++ {
		run := &searchRun{ctx: ctx, root: side, cache: cache}
		d, err := run.searchRoot(root, actions, depth)
		nodes += run.nodes
		if err != nil {
			if depth > 1 && ctx.Err() != nil {
				best.Nodes = nodes
				return best, nil
			}
			return Decision{}, err
		}
		best = d
		if d.Score >= WinScore-depth {
			// A win this close cannot improve with a longer horizon.
			break
		}
	}
	best.Nodes = nodes
	return best, nil
}

type searchRun struct {
	ctx   context.Context
	root  domain.Side
	cache *transpositionCache
	nodes int
}

func (r *searchRun) searchRoot(g *domain.Game, actions []domain.Action, plies int) (Decision, error) {
	best := Decision{Score: math.MinInt, Depth: plies}
	for _, a := range actions {
		next, err := domain.Play(g, g.Turn, a)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: enumerated %s rejected: %v", domain.ErrInternal, a, err)
		}
		// Alpha is the best score so far: an equal score never displaces it.
		alpha := best.Score
		if alpha == math.MinInt {
			alpha = -math.MaxInt
		}
		score, err := r.minimax(next, 1, plies, alpha, math.MaxInt)
		if err != nil {
			return Decision{}, err
		}
		if score > best.Score {
			best.Action = a
			best.Score = score
		}
	}
	best.Nodes = r.nodes
	return best, nil
}

func (r *searchRun) minimax(g *domain.Game, depth, plies, alpha, beta int) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	r.nodes++

	if g.Terminal() {
		return r.terminalScore(g.Result, depth), nil
	}
	if depth >= plies {
		return 0, nil
	}

	remaining := plies - depth
	key := g.Hash()
	if e, ok := r.cache.probe(key, depth, remaining); ok {
		switch e.flag {
		case boundExact:
			return e.score, nil
		case boundLower:
			alpha = max(alpha, e.score)
		case boundUpper:
			beta = min(beta, e.score)
		}
		if alpha >= beta {
			return e.score, nil
		}
	}

	actions := Actions(g)
	if len(actions) == 0 {
		return 0, nil
	}

	alphaIn, betaIn := alpha, beta
	maximizing := g.Turn == r.root
	best := math.MaxInt
	if maximizing {
		best = -math.MaxInt
	}

	for _, a := range actions {
		next, err := domain.Play(g, g.Turn, a)
		if err != nil {
			return 0, fmt.Errorf("%w: enumerated %s rejected: %v", domain.ErrInternal, a, err)
		}
		score, err := r.minimax(next, depth+1, plies, alpha, beta)
		if err != nil {
			return 0, err
		}
		if maximizing {
			best = max(best, score)
			alpha = max(alpha, best)
		} else {
			best = min(best, score)
			beta = min(beta, best)
		}
		if alpha >= beta {
			break
		}
	}

	flag := boundExact
	switch {
	case best <= alphaIn:
		flag = boundUpper
	case best >= betaIn:
		flag = boundLower
	}
	r.cache.store(key, depth, remaining, best, flag)
	return best, nil
}

func (r *searchRun) terminalScore(res domain.Result, depth int) int {
	if res.Outcome != domain.Win {
		return 0
	}
	if res.Winner == r.root {
		return WinScore - depth
	}
	return -WinScore + depth
}
