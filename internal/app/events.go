package app

import "tictacchec/internal/domain"

// EventKind identifies emitted room events for transport dispatch.
type EventKind string

const (
	EventRoomCreated      EventKind = "room_created"
	EventRoomJoined       EventKind = "room_joined"
	EventStateUpdate      EventKind = "state_update"
	EventDisconnectNotice EventKind = "disconnect_notice"
	EventRematchRequested EventKind = "rematch_requested"
	EventPresenceCount    EventKind = "presence_count"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // connection IDs; empty means broadcast
}

type RoomCreatedPayload struct {
	RoomID string
	Side   domain.Side
}

// RoomJoinedPayload is sent to each occupant with its own side once the room fills.
type RoomJoinedPayload struct {
	RoomID string
	Side   domain.Side
	Game   *domain.Game
}

type StateUpdatePayload struct {
	Game *domain.Game
	// Action is the accepted action; it is nil for forfeits.
	Action *domain.Action
	Actor  domain.Side
}

// DisconnectReason explains a disconnect notice.
type DisconnectReason string

const (
	ReasonOpponentDisconnected DisconnectReason = "opponent_disconnected"
	ReasonWaiting              DisconnectReason = "waiting"
)

type DisconnectNoticePayload struct {
	Reason DisconnectReason
}

type RematchRequestedPayload struct {
	Side domain.Side
}

type PresenceCountPayload struct {
	Count int
}
