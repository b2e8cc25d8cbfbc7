package domain

import "fmt"

// Side identifies one of the two players.
type Side uint8

const (
	// First moves first in every fresh game.
	First Side = iota
	// Second replies to First.
	Second
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == First {
		return Second
	}
	return First
}

func (s Side) String() string {
	switch s {
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Valid reports whether s is First or Second.
func (s Side) Valid() bool {
	return s == First || s == Second
}

// ParseSide maps the wire name of a side back to its value.
func ParseSide(name string) (Side, bool) {
	switch name {
	case "first":
		return First, true
	case "second":
		return Second, true
	default:
		return 0, false
	}
}

// PieceKind is one of the four piece types each side owns exactly once.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	Pawn
	Rook
	Knight
	Bishop
)

// Kinds lists the piece kinds in canonical order.
var Kinds = [...]PieceKind{Pawn, Rook, Knight, Bishop}

// KindCount is the number of distinct piece kinds.
const KindCount = len(Kinds)

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Rook:
		return "rook"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	default:
		return "none"
	}
}

// Valid reports whether k names a real piece kind.
func (k PieceKind) Valid() bool {
	return k >= Pawn && k <= Bishop
}

// ParsePieceKind maps a wire name to a PieceKind.
func ParsePieceKind(name string) (PieceKind, bool) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, true
		}
	}
	return NoKind, false
}

// Piece is a placed piece. Facing is +1 or -1 for pawns and 0 otherwise.
type Piece struct {
	Owner  Side      `json:"owner"`
	Kind   PieceKind `json:"kind"`
	Facing int8      `json:"facing,omitempty"`
}

// Empty reports whether the piece value represents an empty cell.
func (p Piece) Empty() bool {
	return p.Kind == NoKind
}

// Outcome is the terminal classification of a game.
type Outcome uint8

const (
	// Ongoing means no line is complete and the board still has room.
	Ongoing Outcome = iota
	// Win means Result.Winner owns a complete line.
	Win
	// Draw means the board is full without a winning line.
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Result is the outcome of a game. Winner is meaningful only for Win.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Winner  Side    `json:"winner"`
}

// Terminal reports whether the result ends the game.
func (r Result) Terminal() bool {
	return r.Outcome != Ongoing
}

// Game is a complete, self-contained game value. Copying the struct copies the
// board and pools; History is shared until Clone is used.
type Game struct {
	Board   Board    `json:"board"`
	Pools   [2]Pool  `json:"pools"`
	Turn    Side     `json:"turn"`
	Result  Result   `json:"result"`
	History []Action `json:"history,omitempty"`
}

// NewGame returns a fresh game: full pools, empty board, First to move.
func NewGame() *Game {
	return &Game{
		Pools: [2]Pool{FullPool(), FullPool()},
		Turn:  First,
	}
}

// Clone returns a deep copy of g.
func (g *Game) Clone() *Game {
	c := *g
	if g.History != nil {
		c.History = append([]Action(nil), g.History...)
	}
	return &c
}

// Pool returns the pool of the given side.
func (g *Game) Pool(s Side) Pool {
	return g.Pools[s]
}

// Terminal reports whether the game has ended.
func (g *Game) Terminal() bool {
	return g.Result.Terminal()
}

// FromBoard builds a game holding exactly the pieces on b with turn to move;
// every piece not on the board is in its owner's pool. Pawns without a facing
// get the placement facing of their cell.
func FromBoard(b Board, turn Side) (*Game, error) {
	g := NewGame()
	g.Turn = turn
	for cell, p := range b {
		if p.Empty() {
			continue
		}
		if !p.Kind.Valid() || !p.Owner.Valid() {
			return nil, fmt.Errorf("%w: bad piece at cell %d", ErrInvalidTarget, cell)
		}
		if !g.Pools[p.Owner].take(p.Kind) {
			return nil, fmt.Errorf("%w: %s %s placed twice", ErrPieceUnavailable, p.Owner, p.Kind)
		}
		if p.Kind == Pawn && p.Facing == 0 {
			p.Facing = placementFacing(p.Owner, Row(cell))
		}
		g.Board[cell] = p
	}
	g.Result = Detect(&g.Board)
	return g, nil
}
