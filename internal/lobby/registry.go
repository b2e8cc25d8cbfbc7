package lobby

import (
	"sort"
	"sync"
)

// Registry tracks connected sessions and the room each one is seated in.
type Registry struct {
	mu        sync.RWMutex
	connected map[string]struct{}
	rooms     map[string]string // conn -> room ID
}

func NewRegistry() *Registry {
	return &Registry{
		connected: make(map[string]struct{}),
		rooms:     make(map[string]string),
	}
}

// Connect registers conn. It reports false if conn was already registered.
func (r *Registry) Connect(conn string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connected[conn]; ok {
		return false
	}
	r.connected[conn] = struct{}{}
	return true
}

// Disconnect forgets conn and returns the room it was seated in, if any.
func (r *Registry) Disconnect(conn string) (roomID string, wasConnected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, wasConnected = r.connected[conn]
	roomID = r.rooms[conn]
	delete(r.connected, conn)
	delete(r.rooms, conn)
	return roomID, wasConnected
}

func (r *Registry) Connected(conn string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connected[conn]
	return ok
}

func (r *Registry) Bind(conn, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[conn] = roomID
}

func (r *Registry) Unbind(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, conn)
}

// RoomOf returns the room conn is seated in.
func (r *Registry) RoomOf(conn string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.rooms[conn]
	return id, ok
}

// Count returns the number of connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connected)
}

// Connections returns the connected session IDs in sorted order.
func (r *Registry) Connections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connected))
	for conn := range r.connected {
		out = append(out, conn)
	}
	sort.Strings(out)
	return out
}
