package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictacchec/internal/domain"
)

func playAll(t *testing.T, actions []domain.Action) *domain.Game {
	t.Helper()
	g, err := domain.Replay(actions)
	require.NoError(t, err)
	return g
}

func TestSnapshotOfPlacements(t *testing.T) {
	g := playAll(t, []domain.Action{
		domain.Place(domain.Rook, domain.CellAt(0, 0)),
		domain.Place(domain.Bishop, domain.CellAt(3, 3)),
	})

	s := SnapshotOf(g)
	assert.Equal(t, []string{"pawn", "knight", "bishop"}, s.Pools["first"])
	assert.Equal(t, []string{"pawn", "rook", "knight"}, s.Pools["second"])
	assert.Equal(t, "first", s.Turn)
	assert.Equal(t, "placement", s.Phase)
	assert.Equal(t, "ongoing", s.Result.Status)
	assert.Equal(t, 2, s.MoveCount)
	assert.Equal(t, &PieceView{Owner: "first", Kind: "rook"}, s.Board[0][0])
	assert.Equal(t, &PieceView{Owner: "second", Kind: "bishop"}, s.Board[3][3])
	assert.Nil(t, s.Board[1][1])
	assert.Nil(t, SnapshotOf(nil))
}

func TestSnapshotOfWin(t *testing.T) {
	g := playAll(t, []domain.Action{
		domain.Place(domain.Rook, domain.CellAt(0, 0)),
		domain.Place(domain.Rook, domain.CellAt(3, 0)),
		domain.Place(domain.Knight, domain.CellAt(0, 1)),
		domain.Place(domain.Knight, domain.CellAt(3, 1)),
		domain.Place(domain.Bishop, domain.CellAt(0, 2)),
		domain.Place(domain.Bishop, domain.CellAt(2, 2)),
		domain.Place(domain.Pawn, domain.CellAt(0, 3)),
	})

	s := SnapshotOf(g)
	assert.Equal(t, "win", s.Result.Status)
	assert.Equal(t, "first", s.Result.Winner)
	assert.Equal(t, []Coord{{0, 0}, {0, 1}, {0, 2}, {0, 3}}, s.Result.Line)
}

// The phase of a game rebuilt from its serialized snapshot matches the phase
// reached by replaying the same actions.
func TestSnapshotPhaseMatchesReplay(t *testing.T) {
	actions := []domain.Action{
		domain.Place(domain.Rook, domain.CellAt(0, 0)),
		domain.Place(domain.Rook, domain.CellAt(3, 3)),
		domain.Place(domain.Knight, domain.CellAt(1, 1)),
		domain.Place(domain.Knight, domain.CellAt(0, 3)),
		domain.Place(domain.Bishop, domain.CellAt(1, 2)),
		domain.Place(domain.Bishop, domain.CellAt(3, 0)),
		// Rook captures the knight and drops Second below three pieces.
		domain.Move(domain.CellAt(0, 0), domain.CellAt(0, 3)),
	}

	for n := 1; n <= len(actions); n++ {
		replayed := playAll(t, actions[:n])

		raw, err := json.Marshal(SnapshotOf(replayed))
		require.NoError(t, err)
		var decoded GameSnapshot
		require.NoError(t, json.Unmarshal(raw, &decoded))
		rebuilt, err := decoded.Game()
		require.NoError(t, err)

		assert.Equal(t, replayed.Phase(), rebuilt.Phase(), "after %d actions", n)
		assert.Equal(t, replayed.Board, rebuilt.Board, "after %d actions", n)
		assert.Equal(t, replayed.Pools, rebuilt.Pools, "after %d actions", n)
		assert.Equal(t, replayed.Turn, rebuilt.Turn, "after %d actions", n)
	}

	final := playAll(t, actions)
	assert.Equal(t, domain.PhasePlacement, final.Phase())
	assert.Equal(t, domain.Second, final.Turn)
	assert.True(t, final.Pool(domain.Second).Has(domain.Knight))
}

func TestSnapshotGameKeepsForfeit(t *testing.T) {
	g := domain.NewGame()
	g.Result = domain.Result{Outcome: domain.Win, Winner: domain.Second}

	rebuilt, err := SnapshotOf(g).Game()
	require.NoError(t, err)
	assert.Equal(t, g.Result, rebuilt.Result)
}

func TestSnapshotGameRejectsBadNames(t *testing.T) {
	s := SnapshotOf(domain.NewGame())
	s.Board[0][0] = &PieceView{Owner: "third", Kind: "rook"}
	_, err := s.Game()
	assert.ErrorIs(t, err, ErrMalformed)

	s = SnapshotOf(domain.NewGame())
	s.Turn = "nobody"
	_, err = s.Game()
	assert.ErrorIs(t, err, ErrMalformed)
}
