package app

import (
	"errors"

	"tictacchec/internal/domain"
)

// Service contains game use-cases operating on domain state. It never
// mutates the games it is given.
type Service struct{}

// NewService constructs a Service.
func NewService() *Service {
	return &Service{}
}

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrRoomNotActive       = errors.New("room is not active")
	ErrAlreadySeated       = errors.New("connection already seated")
	ErrRematchUnavailable  = errors.New("rematch not available")
	ErrUnknownConnection   = errors.New("connection not registered")
	ErrBotThinking         = errors.New("bot is already thinking")
	ErrSearchCancelled     = errors.New("bot search cancelled")
	ErrNotHumanTurn        = errors.New("not the human side's turn")
	ErrSessionTokenInvalid = errors.New("invalid session token")
)

// Submit validates action for side, records the outcome and passes the turn.
// It returns the successor game and a state update for everyone in the game.
func (s *Service) Submit(game *domain.Game, side domain.Side, action domain.Action) (*domain.Game, []Event, error) {
	next, err := domain.Play(game, side, action)
	if err != nil {
		return nil, nil, err
	}

	applied := action
	events := []Event{
		{
			Kind: EventStateUpdate,
			Payload: StateUpdatePayload{
				Game:   next,
				Action: &applied,
				Actor:  side,
			},
		},
	}
	return next, events, nil
}

// Forfeit ends game in favour of the opponent of loser.
func (s *Service) Forfeit(game *domain.Game, loser domain.Side) (*domain.Game, []Event) {
	next := game.Clone()
	next.Result = domain.Result{Outcome: domain.Win, Winner: loser.Opponent()}
	return next, []Event{
		{
			Kind:    EventStateUpdate,
			Payload: StateUpdatePayload{Game: next, Actor: loser},
		},
	}
}
