package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tictacchec/internal/domain"
)

type mockBrain struct {
	mock.Mock
}

func (m *mockBrain) ChooseAction(ctx context.Context, game *domain.Game, side domain.Side) (domain.Action, error) {
	args := m.Called(ctx, game, side)
	return args.Get(0).(domain.Action), args.Error(1)
}

func TestAgentPlaysOnlyOnItsTurn(t *testing.T) {
	brain := &mockBrain{}
	agent := NewAgent(GetBotIdentity(0), domain.Second, brain)

	_, err := agent.Play(context.Background(), domain.NewGame())
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)
	brain.AssertNotCalled(t, "ChooseAction", mock.Anything, mock.Anything, mock.Anything)
}

func TestAgentDelegatesToBrain(t *testing.T) {
	g := domain.NewGame()
	want := domain.Place(domain.Knight, 5)

	brain := &mockBrain{}
	brain.On("ChooseAction", mock.Anything, g, domain.First).Return(want, nil).Once()
	agent := NewAgent(GetBotIdentity(1), domain.First, brain)

	got, err := agent.Play(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	brain.AssertExpectations(t)
}

func TestNewBrainLevels(t *testing.T) {
	for _, level := range []BotLevel{BotLevelEasy, BotLevelMedium, BotLevelHard} {
		brain, err := NewBrain(level, Searcher{Plies: DefaultPlies})
		require.NoError(t, err)

		action, err := brain.ChooseAction(context.Background(), forcedWin(t), domain.First)
		require.NoError(t, err)
		assert.Equal(t, domain.Place(domain.Pawn, domain.CellAt(3, 3)), action, "level %d", level)
	}

	_, err := NewBrain(BotLevel(42), Searcher{})
	assert.Error(t, err)
}

func TestNewBrainScalesBaseSettings(t *testing.T) {
	base := Searcher{Plies: 7, CacheSize: 512}

	horizon := func(level BotLevel) *Searcher {
		brain, err := NewBrain(level, base)
		require.NoError(t, err)
		return brain.(*SearchBrain).Searcher
	}

	assert.Equal(t, 1, horizon(BotLevelEasy).Plies)
	assert.Equal(t, base, *horizon(BotLevelMedium))
	hard := horizon(BotLevelHard)
	assert.Equal(t, MaxPlies, hard.Plies)
	assert.True(t, hard.Deepening)
	assert.Equal(t, 512, hard.CacheSize)

	medium, err := NewBrain(BotLevelMedium, Searcher{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPlies, medium.(*SearchBrain).Searcher.Plies)
}

func TestBotIdentities(t *testing.T) {
	id := GetBotIdentity(0)
	assert.True(t, IsBot(id.UserID))
	assert.False(t, IsBot("user-1"))
	assert.NotEmpty(t, GetBotDisplayName(id.UserID))
	assert.Empty(t, GetBotDisplayName("user-1"))

	cfg, ok := GetBotConfig(id.UserID)
	require.True(t, ok)
	assert.Equal(t, id, cfg)
}
