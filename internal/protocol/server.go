package protocol

import (
	"fmt"

	"tictacchec/internal/app"
)

type RoomCreated struct {
	RoomID string `json:"room_id"`
	Side   string `json:"side"`
	IsFull bool   `json:"is_full"`
}

// RoomJoined is sent to each occupant once the room fills. OpponentName is
// set by transports that know player names.
type RoomJoined struct {
	RoomID       string        `json:"room_id"`
	Side         string        `json:"side"`
	Game         *GameSnapshot `json:"game"`
	IsFull       bool          `json:"is_full"`
	OpponentName string        `json:"opponent_name,omitempty"`
}

type StateUpdate struct {
	Game   *GameSnapshot `json:"game"`
	Action *SubmitAction `json:"action,omitempty"`
	Actor  string        `json:"actor"`
}

type DisconnectNotice struct {
	Reason string `json:"reason"`
}

type RematchRequested struct {
	Side string `json:"side"`
}

type PresenceCount struct {
	N int `json:"n"`
}

// Error is sent only to the connection whose message failed.
type Error struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// FromEvent maps an app event to its wire type and payload.
func FromEvent(ev app.Event) (string, any, error) {
	switch p := ev.Payload.(type) {
	case app.RoomCreatedPayload:
		return TypeRoomCreated, RoomCreated{RoomID: p.RoomID, Side: p.Side.String()}, nil
	case app.RoomJoinedPayload:
		return TypeRoomJoined, RoomJoined{
			RoomID: p.RoomID,
			Side:   p.Side.String(),
			Game:   SnapshotOf(p.Game),
			IsFull: true,
		}, nil
	case app.StateUpdatePayload:
		msg := StateUpdate{Game: SnapshotOf(p.Game), Actor: p.Actor.String()}
		if p.Action != nil {
			a := SubmitActionOf(*p.Action)
			msg.Action = &a
		}
		return TypeStateUpdate, msg, nil
	case app.DisconnectNoticePayload:
		return TypeDisconnectNotice, DisconnectNotice{Reason: string(p.Reason)}, nil
	case app.RematchRequestedPayload:
		return TypeRematchRequested, RematchRequested{Side: p.Side.String()}, nil
	case app.PresenceCountPayload:
		return TypePresenceCount, PresenceCount{N: p.Count}, nil
	default:
		return "", nil, fmt.Errorf("no wire form for event %s (%T)", ev.Kind, ev.Payload)
	}
}

// EncodeEvent renders an app event as a complete frame.
func EncodeEvent(ev app.Event) ([]byte, error) {
	msgType, payload, err := FromEvent(ev)
	if err != nil {
		return nil, err
	}
	return Encode(msgType, payload)
}

// EncodeError renders the error frame for err.
func EncodeError(err error) ([]byte, error) {
	return Encode(TypeError, Error{Reason: ReasonFor(err), Message: err.Error()})
}
