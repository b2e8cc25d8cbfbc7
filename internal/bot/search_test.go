package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictacchec/internal/domain"
)

func piece(owner domain.Side, kind domain.PieceKind) domain.Piece {
	return domain.Piece{Owner: owner, Kind: kind}
}

func setup(t *testing.T, turn domain.Side, pieces map[int]domain.Piece) *domain.Game {
	t.Helper()
	var b domain.Board
	for cell, p := range pieces {
		b[cell] = p
	}
	g, err := domain.FromBoard(b, turn)
	require.NoError(t, err)
	require.False(t, g.Terminal(), "setup position is already decided")
	return g
}

// forcedWin has First holding three cells of column 3 with the pawn left to
// place on (3,3).
func forcedWin(t *testing.T) *domain.Game {
	return setup(t, domain.First, map[int]domain.Piece{
		domain.CellAt(0, 3): piece(domain.First, domain.Rook),
		domain.CellAt(1, 3): piece(domain.First, domain.Knight),
		domain.CellAt(2, 3): piece(domain.First, domain.Bishop),
		domain.CellAt(1, 0): piece(domain.Second, domain.Rook),
		domain.CellAt(2, 1): piece(domain.Second, domain.Knight),
	})
}

func TestSearchFindsForcedWin(t *testing.T) {
	for _, s := range []*Searcher{
		NewSearcher(DefaultPlies),
		{Plies: 3, Deepening: true},
	} {
		d, err := s.Search(context.Background(), forcedWin(t), domain.First)
		require.NoError(t, err)
		assert.Equal(t, domain.Place(domain.Pawn, domain.CellAt(3, 3)), d.Action)
		assert.Equal(t, WinScore-1, d.Score)
	}
}

func TestSearchBlocksImmediateThreat(t *testing.T) {
	g := setup(t, domain.First, map[int]domain.Piece{
		domain.CellAt(3, 0): piece(domain.Second, domain.Rook),
		domain.CellAt(3, 1): piece(domain.Second, domain.Knight),
		domain.CellAt(3, 2): piece(domain.Second, domain.Bishop),
		domain.CellAt(0, 0): piece(domain.First, domain.Rook),
		domain.CellAt(1, 1): piece(domain.First, domain.Knight),
	})
	require.Equal(t, domain.PhasePlacement, g.Phase())

	d, err := NewSearcher(2).Search(context.Background(), g, domain.First)
	require.NoError(t, err)
	assert.Equal(t, domain.Place(domain.Pawn, domain.CellAt(3, 3)), d.Action)
	assert.Equal(t, 0, d.Score)
}

func TestSearchBreaksTiesByEnumerationOrder(t *testing.T) {
	action, err := SelectAction(context.Background(), domain.NewGame(), domain.First, DefaultPlies)
	require.NoError(t, err)
	assert.Equal(t, domain.Place(domain.Pawn, 0), action)
}

func TestSearchDoesNotMutateGame(t *testing.T) {
	g := forcedWin(t)
	before := g.Clone()

	_, err := NewSearcher(3).Search(context.Background(), g, domain.First)
	require.NoError(t, err)
	assert.Equal(t, before, g)
}

func TestDeepeningAgreesWithFixedHorizon(t *testing.T) {
	g, err := domain.Replay([]domain.Action{
		domain.Place(domain.Rook, domain.CellAt(0, 0)),
		domain.Place(domain.Rook, domain.CellAt(3, 3)),
		domain.Place(domain.Knight, domain.CellAt(1, 1)),
		domain.Place(domain.Knight, domain.CellAt(2, 2)),
		domain.Place(domain.Bishop, domain.CellAt(0, 3)),
		domain.Place(domain.Bishop, domain.CellAt(3, 0)),
	})
	require.NoError(t, err)
	require.Equal(t, domain.PhaseFlexible, g.Phase())

	fixed, err := NewSearcher(3).Search(context.Background(), g, domain.First)
	require.NoError(t, err)
	deep, err := (&Searcher{Plies: 3, Deepening: true, CacheSize: 1024}).Search(context.Background(), g, domain.First)
	require.NoError(t, err)

	assert.Equal(t, fixed.Action, deep.Action)
	assert.Equal(t, fixed.Score, deep.Score)
}

func TestSearchRejectsWrongSideAndFinishedGames(t *testing.T) {
	_, err := NewSearcher(1).Search(context.Background(), domain.NewGame(), domain.Second)
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)

	over := domain.NewGame()
	over.Result = domain.Result{Outcome: domain.Draw}
	_, err = NewSearcher(1).Search(context.Background(), over, domain.First)
	assert.ErrorIs(t, err, domain.ErrGameOver)
}

func TestSearchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSearcher(2).Search(ctx, domain.NewGame(), domain.First)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNodeScoreRoundTrip(t *testing.T) {
	for _, score := range []int{WinScore - 3, -WinScore + 2, 0} {
		assert.Equal(t, score, fromNodeScore(toNodeScore(score, 3), 3))
	}
	// A win two plies below a node at depth 1 is three plies from a root
	// that reaches the same node at depth 2.
	assert.Equal(t, WinScore-4, fromNodeScore(toNodeScore(WinScore-3, 1), 2))
}
