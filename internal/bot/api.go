package bot

import (
	"context"

	"tictacchec/internal/domain"
)

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	ChooseAction(ctx context.Context, game *domain.Game, side domain.Side) (domain.Action, error)
}

// SearchBrain chooses actions with a minimax Searcher.
type SearchBrain struct {
	Searcher *Searcher
}

// ChooseAction runs the searcher on a private copy of game.
func (b *SearchBrain) ChooseAction(ctx context.Context, game *domain.Game, side domain.Side) (domain.Action, error) {
	d, err := b.Searcher.Search(ctx, game, side)
	if err != nil {
		return domain.Action{}, err
	}
	return d.Action, nil
}
