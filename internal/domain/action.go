package domain

import "fmt"

// ActionKind distinguishes placements from moves.
type ActionKind uint8

const (
	ActionPlace ActionKind = iota + 1
	ActionMove
)

func (k ActionKind) String() string {
	switch k {
	case ActionPlace:
		return "place"
	case ActionMove:
		return "move"
	default:
		return "unknown"
	}
}

// Action is a proposed turn. Place uses Piece and To; Move uses From and To.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Piece PieceKind  `json:"piece,omitempty"`
	From  int        `json:"from"`
	To    int        `json:"to"`
}

// Place builds a placement of kind onto cell.
func Place(kind PieceKind, cell int) Action {
	return Action{Kind: ActionPlace, Piece: kind, From: -1, To: cell}
}

// Move builds a movement from one cell to another.
func Move(from, to int) Action {
	return Action{Kind: ActionMove, From: from, To: to}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionPlace:
		return fmt.Sprintf("place %s@(%d,%d)", a.Piece, Row(a.To), Col(a.To))
	case ActionMove:
		return fmt.Sprintf("move (%d,%d)->(%d,%d)", Row(a.From), Col(a.From), Row(a.To), Col(a.To))
	default:
		return "invalid action"
	}
}
