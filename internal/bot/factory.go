package bot

import (
	"fmt"

	"tictacchec/internal/domain"
)

// BotLevel selects how far ahead a bot looks.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota + 1
	BotLevelMedium
	BotLevelHard
)

// NewBrain creates a search brain for level from base search settings. A
// medium bot searches with base unchanged, an easy bot looks one ply ahead,
// and a hard bot looks two plies further with iterative deepening.
func NewBrain(level BotLevel, base Searcher) (Brain, error) {
	s := base
	if s.Plies <= 0 {
		s.Plies = DefaultPlies
	}
	switch level {
	case BotLevelEasy:
		s.Plies = 1
	case BotLevelMedium:
	case BotLevelHard:
		s.Plies = min(s.Plies+2, MaxPlies)
		s.Deepening = true
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
	return &SearchBrain{Searcher: &s}, nil
}

// NewBrainWithPlies creates a search brain with an explicit horizon.
func NewBrainWithPlies(plies int, deepening bool) Brain {
	return &SearchBrain{Searcher: &Searcher{Plies: plies, Deepening: deepening}}
}

// NewAgent seats a bot with the given identity and brain on side.
func NewAgent(identity BotIdentity, side domain.Side, brain Brain) *Agent {
	name := identity.DisplayName
	if name == "" {
		name = identity.Username
	}
	return &Agent{
		ID:       identity.UserID,
		Name:     name,
		Side:     side,
		Strategy: brain,
	}
}
