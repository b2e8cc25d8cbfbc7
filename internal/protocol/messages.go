package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"tictacchec/internal/domain"
)

// Client -> server message types.
const (
	TypeFindOrJoin     = "find_or_join"
	TypeSubmitAction   = "submit_action"
	TypeRequestRematch = "request_rematch"
	TypeLeaveRoom      = "leave_room"
)

// Server -> client message types.
const (
	TypeRoomCreated      = "room_created"
	TypeRoomJoined       = "room_joined"
	TypeStateUpdate      = "state_update"
	TypeDisconnectNotice = "disconnect_notice"
	TypeRematchRequested = "rematch_requested"
	TypePresenceCount    = "presence_count"
	TypeError            = "error"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
	ErrRateLimited = errors.New("rate limited")
)

// Envelope is the tagged frame every message travels in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Coord addresses a board cell by row and column.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CoordOf converts a cell index to a Coord.
func CoordOf(cell int) Coord {
	return Coord{Row: domain.Row(cell), Col: domain.Col(cell)}
}

// Cell returns the cell index, or -1 when the coordinate is off the board.
func (c Coord) Cell() int {
	if !domain.InBounds(c.Row, c.Col) {
		return -1
	}
	return domain.CellAt(c.Row, c.Col)
}

type FindOrJoin struct{}

// SubmitAction is a proposed place or move. Place requires Piece and Cell;
// Move requires From and To.
type SubmitAction struct {
	Kind  string `json:"kind"`
	Piece string `json:"piece,omitempty"`
	Cell  *Coord `json:"cell,omitempty"`
	From  *Coord `json:"from,omitempty"`
	To    *Coord `json:"to,omitempty"`
}

type RequestRematch struct{}

type LeaveRoom struct{}

// Action converts the message to a domain action. Shape problems are
// ErrMalformed; off-board cells surface later as domain.ErrInvalidTarget.
func (m SubmitAction) Action() (domain.Action, error) {
	switch m.Kind {
	case "place":
		kind, ok := domain.ParsePieceKind(m.Piece)
		if !ok {
			return domain.Action{}, fmt.Errorf("%w: unknown piece %q", ErrMalformed, m.Piece)
		}
		if m.Cell == nil || m.From != nil || m.To != nil {
			return domain.Action{}, fmt.Errorf("%w: place needs exactly a cell", ErrMalformed)
		}
		return domain.Place(kind, m.Cell.Cell()), nil
	case "move":
		if m.From == nil || m.To == nil || m.Cell != nil || m.Piece != "" {
			return domain.Action{}, fmt.Errorf("%w: move needs from and to", ErrMalformed)
		}
		return domain.Move(m.From.Cell(), m.To.Cell()), nil
	default:
		return domain.Action{}, fmt.Errorf("%w: unknown action kind %q", ErrMalformed, m.Kind)
	}
}

// SubmitActionOf builds the wire form of a domain action.
func SubmitActionOf(a domain.Action) SubmitAction {
	switch a.Kind {
	case domain.ActionPlace:
		cell := CoordOf(a.To)
		return SubmitAction{Kind: "place", Piece: a.Piece.String(), Cell: &cell}
	default:
		from, to := CoordOf(a.From), CoordOf(a.To)
		return SubmitAction{Kind: "move", From: &from, To: &to}
	}
}

// DecodeClient parses one client frame. Unknown fields, unknown types and
// payloads of the wrong shape are rejected.
func DecodeClient(data []byte) (any, error) {
	var env Envelope
	if err := strictUnmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeFindOrJoin:
		return FindOrJoin{}, expectEmpty(env.Payload)
	case TypeRequestRematch:
		return RequestRematch{}, expectEmpty(env.Payload)
	case TypeLeaveRoom:
		return LeaveRoom{}, expectEmpty(env.Payload)
	case TypeSubmitAction:
		var msg SubmitAction
		if len(env.Payload) == 0 {
			return nil, fmt.Errorf("%w: submit_action without payload", ErrMalformed)
		}
		if err := strictUnmarshal(env.Payload, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if _, err := msg.Action(); err != nil {
			return nil, err
		}
		return msg, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Encode wraps payload in a typed envelope.
func Encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}

func expectEmpty(payload json.RawMessage) error {
	if len(payload) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || len(fields) > 0 {
		return fmt.Errorf("%w: unexpected payload", ErrMalformed)
	}
	return nil
}
