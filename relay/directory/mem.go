// Package directory implements the room membership map: room name -> set of
// peer IDs, plus the reverse index needed for disconnect teardown.
package directory

import (
	"context"
	"sort"
	"sync"
)

// Memory is the default single-process directory.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room -> peers
	peers map[string]map[string]struct{} // peer -> rooms
}

func NewMemory() *Memory {
	return &Memory{
		rooms: make(map[string]map[string]struct{}),
		peers: make(map[string]map[string]struct{}),
	}
}

// Participants returns a sorted point-in-time snapshot; an unknown room is
// simply empty.
func (m *Memory) Participants(_ context.Context, room string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.rooms[room]
	if len(members) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(members))
	for p := range members {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Join(_ context.Context, peer, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[room] == nil {
		m.rooms[room] = make(map[string]struct{})
	}
	m.rooms[room][peer] = struct{}{}

	if m.peers[peer] == nil {
		m.peers[peer] = make(map[string]struct{})
	}
	m.peers[peer][room] = struct{}{}
	return nil
}

func (m *Memory) Leave(_ context.Context, peer, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(peer, room)
	return nil
}

func (m *Memory) LeaveAll(_ context.Context, peer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for room := range m.peers[peer] {
		m.remove(peer, room)
	}
	return nil
}

func (m *Memory) remove(peer, room string) {
	if members, ok := m.rooms[room]; ok {
		delete(members, peer)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	if rooms, ok := m.peers[peer]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(m.peers, peer)
		}
	}
}
