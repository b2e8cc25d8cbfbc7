package app

import (
	"context"
	"sync"

	"tictacchec/internal/bot"
	"tictacchec/internal/domain"
)

// BotMoveFunc receives the result of a background bot search. On success game
// is the state after the bot's action.
type BotMoveFunc func(game *domain.Game, action domain.Action, err error)

// LocalMatch is an offline game between a human side and a bot. Human actions
// apply synchronously; bot searches run in a goroutine and report through a
// callback.
type LocalMatch struct {
	mu         sync.Mutex
	svc        *Service
	brain      bot.Brain
	human      domain.Side
	game       *domain.Game
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewLocalMatch starts a fresh game with the human playing side human.
func NewLocalMatch(human domain.Side, brain bot.Brain) *LocalMatch {
	return &LocalMatch{
		svc:   NewService(),
		brain: brain,
		human: human,
		game:  domain.NewGame(),
	}
}

// Game returns the current game. The value must not be modified.
func (m *LocalMatch) Game() *domain.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game
}

// HumanSide returns the side the human plays.
func (m *LocalMatch) HumanSide() domain.Side {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.human
}

// Submit applies a human action.
func (m *LocalMatch) Submit(action domain.Action) (*domain.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Terminal() {
		return nil, domain.ErrGameOver
	}
	if m.game.Turn != m.human {
		return nil, ErrNotHumanTurn
	}
	next, _, err := m.svc.Submit(m.game, m.human, action)
	if err != nil {
		return nil, err
	}
	m.game = next
	return next, nil
}

// RequestBotMove starts a background search for the bot's next action and
// applies it when found. onDone runs on the search goroutine. A reset while
// searching cancels the search and onDone receives ErrSearchCancelled.
func (m *LocalMatch) RequestBotMove(onDone BotMoveFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Terminal() {
		return domain.ErrGameOver
	}
	botSide := m.human.Opponent()
	if m.game.Turn != botSide {
		return domain.ErrNotYourTurn
	}
	if m.cancel != nil {
		return ErrBotThinking
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	generation := m.generation
	snapshot := m.game.Clone()

	go func() {
		defer close(done)
		defer cancel()

		action, err := m.brain.ChooseAction(ctx, snapshot, botSide)

		m.mu.Lock()
		if m.generation != generation || ctx.Err() != nil {
			m.mu.Unlock()
			onDone(nil, domain.Action{}, ErrSearchCancelled)
			return
		}
		m.cancel = nil
		m.done = nil
		if err != nil {
			m.mu.Unlock()
			onDone(nil, domain.Action{}, err)
			return
		}
		next, _, err := m.svc.Submit(m.game, botSide, action)
		if err == nil {
			m.game = next
		}
		m.mu.Unlock()
		onDone(next, action, err)
	}()
	return nil
}

// Thinking reports whether a bot search is in flight.
func (m *LocalMatch) Thinking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Reset cancels any search in flight and starts a fresh game with the human
// on side human. It waits for a cancelled search to finish.
func (m *LocalMatch) Reset(human domain.Side) {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.generation++
	m.cancel = nil
	m.done = nil
	m.human = human
	m.game = domain.NewGame()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
