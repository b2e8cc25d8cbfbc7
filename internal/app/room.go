package app

import (
	"fmt"

	"tictacchec/internal/domain"
)

// RoomStatus is the lifecycle stage of a room.
type RoomStatus string

const (
	StatusWaitingForOpponent RoomStatus = "waiting_for_opponent"
	StatusActive             RoomStatus = "active"
	StatusFinished           RoomStatus = "finished"
)

// Room is the authoritative state of one two-seat game room. It is not safe
// for concurrent use; callers serialize access per room.
type Room struct {
	ID     string
	Seats  [RoomCapacity]string // connection ID per side, "" when empty
	Game   *domain.Game
	Status RoomStatus

	rematch [RoomCapacity]bool
	svc     *Service
}

// NewRoom creates an empty room waiting for its first occupant.
func NewRoom(id string, svc *Service) *Room {
	if svc == nil {
		svc = NewService()
	}
	return &Room{ID: id, Status: StatusWaitingForOpponent, svc: svc}
}

// Occupants returns the number of seated connections.
func (r *Room) Occupants() int {
	n := 0
	for _, conn := range r.Seats {
		if conn != "" {
			n++
		}
	}
	return n
}

// Empty reports whether nobody is seated.
func (r *Room) Empty() bool {
	return r.Occupants() == 0
}

// Open reports whether the room accepts a new occupant.
func (r *Room) Open() bool {
	return r.Status == StatusWaitingForOpponent && r.Occupants() < RoomCapacity
}

// SideOf resolves a seated connection to its side.
func (r *Room) SideOf(conn string) (domain.Side, bool) {
	for i, seat := range r.Seats {
		if seat != "" && seat == conn {
			return domain.Side(i), true
		}
	}
	return 0, false
}

// Join seats conn. The first occupant takes First and waits; the second takes
// the free side, a fresh game starts and both occupants receive the full state.
func (r *Room) Join(conn string) ([]Event, error) {
	if _, ok := r.SideOf(conn); ok {
		return nil, ErrAlreadySeated
	}
	if !r.Open() {
		return nil, ErrRoomFull
	}

	side := domain.First
	if r.Seats[domain.First] != "" {
		side = domain.Second
	}
	r.Seats[side] = conn
	r.rematch = [RoomCapacity]bool{}

	if r.Occupants() < RoomCapacity {
		r.Game = nil
		return []Event{
			{
				Kind:       EventRoomCreated,
				Payload:    RoomCreatedPayload{RoomID: r.ID, Side: side},
				Recipients: []string{conn},
			},
		}, nil
	}

	r.Game = domain.NewGame()
	r.Status = StatusActive
	return r.joinedEvents(), nil
}

// Submit validates and commits action on behalf of conn. Rejected actions
// leave the room untouched.
func (r *Room) Submit(conn string, action domain.Action) ([]Event, error) {
	side, ok := r.SideOf(conn)
	if !ok {
		return nil, ErrRoomNotFound
	}
	switch r.Status {
	case StatusActive:
	case StatusFinished:
		return nil, domain.ErrGameOver
	default:
		return nil, ErrRoomNotActive
	}

	next, events, err := r.svc.Submit(r.Game, side, action)
	if err != nil {
		return nil, err
	}
	r.Game = next
	if next.Terminal() {
		r.Status = StatusFinished
	}
	return r.address(events), nil
}

// Leave unseats conn. An opponent left alone in an unfinished game wins by
// forfeit; an occupant left in a finished or waiting room waits for a new
// opponent. The boolean reports whether the room is now empty.
func (r *Room) Leave(conn string) ([]Event, bool) {
	side, ok := r.SideOf(conn)
	if !ok {
		return nil, r.Empty()
	}
	r.Seats[side] = ""
	r.rematch = [RoomCapacity]bool{}

	remaining := r.Seats[side.Opponent()]
	if remaining == "" {
		r.Game = nil
		r.Status = StatusWaitingForOpponent
		return nil, true
	}

	if r.Status == StatusActive && !r.Game.Terminal() {
		next, events := r.svc.Forfeit(r.Game, side)
		r.Game = next
		r.Status = StatusFinished
		notice := Event{
			Kind:       EventDisconnectNotice,
			Payload:    DisconnectNoticePayload{Reason: ReasonOpponentDisconnected},
			Recipients: []string{remaining},
		}
		for i := range events {
			events[i].Recipients = []string{remaining}
		}
		return append([]Event{notice}, events...), false
	}

	r.Game = nil
	r.Status = StatusWaitingForOpponent
	return []Event{
		{
			Kind:       EventDisconnectNotice,
			Payload:    DisconnectNoticePayload{Reason: ReasonWaiting},
			Recipients: []string{remaining},
		},
	}, false
}

// RequestRematch records that conn wants another game in a finished room.
// Once both occupants asked, the game restarts with the same sides.
func (r *Room) RequestRematch(conn string) ([]Event, error) {
	side, ok := r.SideOf(conn)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if r.Status != StatusFinished || r.Occupants() < RoomCapacity {
		return nil, ErrRematchUnavailable
	}

	r.rematch[side] = true
	if !r.rematch[side.Opponent()] {
		return []Event{
			{
				Kind:       EventRematchRequested,
				Payload:    RematchRequestedPayload{Side: side},
				Recipients: []string{r.Seats[side.Opponent()]},
			},
		}, nil
	}

	r.rematch = [RoomCapacity]bool{}
	r.Game = domain.NewGame()
	r.Status = StatusActive
	return r.joinedEvents(), nil
}

func (r *Room) joinedEvents() []Event {
	events := make([]Event, 0, RoomCapacity)
	for i, conn := range r.Seats {
		events = append(events, Event{
			Kind:       EventRoomJoined,
			Payload:    RoomJoinedPayload{RoomID: r.ID, Side: domain.Side(i), Game: r.Game},
			Recipients: []string{conn},
		})
	}
	return events
}

// address fills in both occupants on untargeted events.
func (r *Room) address(events []Event) []Event {
	occupants := make([]string, 0, RoomCapacity)
	for _, conn := range r.Seats {
		if conn != "" {
			occupants = append(occupants, conn)
		}
	}
	for i := range events {
		if len(events[i].Recipients) == 0 {
			events[i].Recipients = occupants
		}
	}
	return events
}

func (r *Room) String() string {
	return fmt.Sprintf("room %s (%s, %d/%d)", r.ID, r.Status, r.Occupants(), RoomCapacity)
}
