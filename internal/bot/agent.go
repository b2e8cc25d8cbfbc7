package bot

import (
	"context"

	"tictacchec/internal/domain"
)

// Agent represents an autonomous bot player seated on one side.
type Agent struct {
	ID       string
	Name     string
	Side     domain.Side
	Strategy Brain
}

// Play asks the agent to choose its action for the current game state.
func (a *Agent) Play(ctx context.Context, game *domain.Game) (domain.Action, error) {
	if game.Turn != a.Side {
		return domain.Action{}, domain.ErrNotYourTurn
	}
	return a.Strategy.ChooseAction(ctx, game, a.Side)
}
