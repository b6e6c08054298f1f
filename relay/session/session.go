// Package session holds the single piece of mutable relay state: who the
// speaker is, where its audio goes, and the cached stream init segment.
// Every read-modify-write goes through one mutex; methods only decide, they
// never touch the transport, so the lock is never held across I/O.
package session

import (
	"sort"
	"sync"

	"github.com/soundbus/audio-relay/relay"
)

// Route is the fanout decision for one audio chunk.
type Route struct {
	// Init marks the call that cached the init segment; the chunk goes out
	// once as audio_init and never doubles as a regular chunk.
	Init  bool
	All   bool
	Rooms []string
}

// Snapshot is a read-only view for the ops API.
type Snapshot struct {
	SpeakerPresent bool     `json:"speakerPresent"`
	All            bool     `json:"all"`
	Rooms          []string `json:"rooms"`
	InitCached     bool     `json:"initCached"`
}

type State struct {
	mu      sync.Mutex
	speaker string
	all     bool
	targets map[string]struct{}

	// initSeg is set at most once per speaker session; initSet is the
	// explicit marker so detection never relies on payload equality.
	initSeg []byte
	initSet bool
}

func NewState() *State {
	return &State{
		all:     true,
		targets: map[string]struct{}{},
	}
}

// Begin starts a new speaker session: the requester becomes the speaker,
// the scope is resolved, and the previous stream's init segment is dropped.
func (s *State) Begin(peer string, all bool, rooms []string) relay.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speaker = peer
	s.setScope(all, rooms)
	s.initSeg = nil
	s.initSet = false
	return s.scope()
}

// SetTargets updates the stored scope; ignored unless peer is the current
// speaker. The init segment and speaker identity are untouched.
func (s *State) SetTargets(peer string, all bool, rooms []string) (relay.Scope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if peer != s.speaker || s.speaker == "" {
		return relay.Scope{}, false
	}
	s.setScope(all, rooms)
	return s.scope(), true
}

// AdmitChunk validates the sender and decides the chunk's fate. The first
// chunk of a session is cached as the init segment; later chunks get a
// routing decision honoring a per-message override (explicit rooms win and
// force all=false; otherwise all is the message flag OR the stored scope).
func (s *State) AdmitChunk(peer string, chunk []byte, all bool, rooms []string) (Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if peer != s.speaker || s.speaker == "" {
		return Route{}, false
	}

	if !s.initSet {
		s.initSeg = chunk
		s.initSet = true
		return Route{Init: true}, true
	}

	if rooms != nil {
		return Route{Rooms: append([]string{}, rooms...)}, true
	}
	if all || s.all {
		return Route{All: true}, true
	}
	return Route{Rooms: s.sortedTargets()}, true
}

// InitSegment returns the cached init segment, if any.
func (s *State) InitSegment() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initSeg, s.initSet
}

// Speaker returns the current speaker identity.
func (s *State) Speaker() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaker, s.speaker != ""
}

// DropPeer clears the speaker slot if peer holds it, resetting the scope to
// broadcast-all. The init segment is deliberately kept: no audio arrives
// until a new session begins, and Begin clears it then.
func (s *State) DropPeer(peer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if peer != s.speaker || s.speaker == "" {
		return false
	}
	s.speaker = ""
	s.all = true
	s.targets = map[string]struct{}{}
	return true
}

func (s *State) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SpeakerPresent: s.speaker != "",
		All:            s.all,
		Rooms:          s.sortedTargets(),
		InitCached:     s.initSet,
	}
}

// setScope applies the shared resolution rule: broadcast to all when asked
// explicitly or when no rooms were named.
func (s *State) setScope(all bool, rooms []string) {
	s.all = all || len(rooms) == 0
	s.targets = make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		s.targets[r] = struct{}{}
	}
}

func (s *State) scope() relay.Scope {
	return relay.Scope{All: s.all, Rooms: s.sortedTargets()}
}

func (s *State) sortedTargets() []string {
	rooms := make([]string, 0, len(s.targets))
	for r := range s.targets {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return rooms
}
