package lobby

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tictacchec/internal/app"
	"tictacchec/internal/domain"
)

// UniqueIdGenerator produces room IDs.
type UniqueIdGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

// EventSink delivers events to their recipients. It runs with the affected
// room locked, so it must not block or call back into the Manager.
type EventSink func(events []app.Event)

type roomEntry struct {
	mu   sync.Mutex
	room *app.Room
}

// Manager owns every room of a server. Matchmaking and room lifecycle run
// under the manager lock; game actions only lock their own room.
type Manager struct {
	mu       sync.Mutex
	rooms    map[string]*roomEntry
	order    []string // room IDs in creation order
	sessions *Registry
	svc      *app.Service
	ids      UniqueIdGenerator
	log      zerolog.Logger
	sink     atomic.Pointer[EventSink]
}

type Option func(*Manager)

func WithIdGenerator(ids UniqueIdGenerator) Option {
	return func(m *Manager) { m.ids = ids }
}

func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rooms:    make(map[string]*roomEntry),
		sessions: NewRegistry(),
		svc:      app.NewService(),
		ids:      uuidGenerator{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe routes every event the Manager produces to sink. Events of one
// room reach the sink in the order the room committed them. The methods
// still return their events for callers without a sink.
func (m *Manager) Subscribe(sink EventSink) {
	m.sink.Store(&sink)
}

func (m *Manager) emit(events []app.Event) {
	if len(events) == 0 {
		return
	}
	if sink := m.sink.Load(); sink != nil && *sink != nil {
		(*sink)(events)
	}
}

// Stats is a point-in-time view of the lobby.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	Waiting     int `json:"waiting"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{Connections: m.sessions.Count(), Rooms: len(m.order)}
	for _, id := range m.order {
		entry := m.rooms[id]
		entry.mu.Lock()
		if entry.room.Open() {
			s.Waiting++
		}
		entry.mu.Unlock()
	}
	return s
}

// Connect registers a new session and announces the new population.
func (m *Manager) Connect(conn string) []app.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sessions.Connect(conn) {
		return nil
	}
	m.log.Debug().Str("conn", conn).Msg("session connected")
	events := m.presenceLocked()
	m.emit(events)
	return events
}

// Disconnect removes conn from its room, with forfeit if it was mid-game, and
// announces the new population.
func (m *Manager) Disconnect(conn string) []app.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []app.Event
	if evs, err := m.leaveLocked(conn); err == nil {
		events = append(events, evs...)
	}
	if _, was := m.sessions.Disconnect(conn); was {
		m.log.Debug().Str("conn", conn).Msg("session disconnected")
		presence := m.presenceLocked()
		m.emit(presence)
		events = append(events, presence...)
	}
	return events
}

// FindOrJoin seats conn in the oldest room waiting for an opponent, or in a
// new room. A seated connection leaves its current room first.
func (m *Manager) FindOrJoin(conn string) ([]app.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sessions.Connected(conn) {
		return nil, app.ErrUnknownConnection
	}
	events, _ := m.leaveLocked(conn)

	for _, id := range m.order {
		entry := m.rooms[id]
		entry.mu.Lock()
		if !entry.room.Open() {
			entry.mu.Unlock()
			continue
		}
		evs, err := entry.room.Join(conn)
		if err != nil {
			entry.mu.Unlock()
			return events, err
		}
		m.emit(evs)
		entry.mu.Unlock()
		m.sessions.Bind(conn, id)
		m.log.Info().Str("room", id).Str("conn", conn).Msg("joined waiting room")
		return append(events, evs...), nil
	}

	id := m.ids.Generate()
	room := app.NewRoom(id, m.svc)
	evs, err := room.Join(conn)
	if err != nil {
		return events, err
	}
	m.rooms[id] = &roomEntry{room: room}
	m.order = append(m.order, id)
	m.sessions.Bind(conn, id)
	m.emit(evs)
	m.log.Info().Str("room", id).Str("conn", conn).Msg("room created")
	return append(events, evs...), nil
}

// Submit applies action for conn in its room.
func (m *Manager) Submit(conn string, action domain.Action) ([]app.Event, error) {
	entry, err := m.entryOf(conn)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	events, err := entry.room.Submit(conn, action)
	if err != nil {
		return nil, err
	}
	m.emit(events)
	if entry.room.Status == app.StatusFinished {
		m.log.Info().
			Str("room", entry.room.ID).
			Str("outcome", entry.room.Game.Result.Outcome.String()).
			Str("winner", entry.room.Game.Result.Winner.String()).
			Msg("game finished")
	}
	return events, nil
}

// RequestRematch records a rematch request from conn.
func (m *Manager) RequestRematch(conn string) ([]app.Event, error) {
	entry, err := m.entryOf(conn)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	events, err := entry.room.RequestRematch(conn)
	if err != nil {
		return nil, err
	}
	m.emit(events)
	return events, nil
}

// Leave unseats conn without closing its session.
func (m *Manager) Leave(conn string) ([]app.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaveLocked(conn)
}

func (m *Manager) entryOf(conn string) (*roomEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions.RoomOf(conn)
	if !ok {
		return nil, app.ErrRoomNotFound
	}
	entry, ok := m.rooms[id]
	if !ok {
		return nil, app.ErrRoomNotFound
	}
	return entry, nil
}

func (m *Manager) leaveLocked(conn string) ([]app.Event, error) {
	id, ok := m.sessions.RoomOf(conn)
	if !ok {
		return nil, app.ErrRoomNotFound
	}
	m.sessions.Unbind(conn)
	entry, ok := m.rooms[id]
	if !ok {
		return nil, app.ErrRoomNotFound
	}

	entry.mu.Lock()
	events, empty := entry.room.Leave(conn)
	m.emit(events)
	entry.mu.Unlock()

	m.log.Info().Str("room", id).Str("conn", conn).Bool("empty", empty).Msg("left room")
	if empty {
		delete(m.rooms, id)
		for i, rid := range m.order {
			if rid == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	return events, nil
}

func (m *Manager) presenceLocked() []app.Event {
	conns := m.sessions.Connections()
	if len(conns) == 0 {
		return nil
	}
	return []app.Event{
		{
			Kind:       app.EventPresenceCount,
			Payload:    app.PresenceCountPayload{Count: len(conns)},
			Recipients: conns,
		},
	}
}
