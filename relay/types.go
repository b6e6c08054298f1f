package relay

import (
	"context"

	"github.com/soundbus/audio-relay/internal/errors"
)

// ErrPeerGone is returned when a send targets a peer whose connection is
// no longer registered.
var ErrPeerGone = errors.Code("peer gone")

// Reserved rooms. Speakers has at most one member by policy; AllListeners
// holds every connected listener and is the broadcast-to-all target.
const (
	RoomSpeakers     = "__speakers__"
	RoomAllListeners = "__listeners__"
)

// Inbound methods (peer -> server).
const (
	MethodListenerJoin      = "listener_join"
	MethodSpeakerJoin       = "speaker_join"
	MethodSpeakerSetTargets = "speaker_set_targets"
	MethodAudioChunk        = "audio_chunk"
)

// Outbound events (server -> peer or group).
const (
	EventListenerKicked = "listener_kicked"
	EventSpeakerKicked  = "speaker_kicked"
	EventStreamReset    = "stream_reset"
	EventAudioInit      = "audio_init"
	EventAudioChunk     = "audio_chunk"
)

const KickReasonNewSpeaker = "new_speaker"

// Scope is where a speaker's audio currently goes: everyone, or a set of
// rooms. Rooms is kept sorted and never nil so replies serialize as [].
type Scope struct {
	All   bool     `json:"all"`
	Rooms []string `json:"rooms"`
}

// ScopeParams is the payload of speaker_join and speaker_set_targets.
type ScopeParams struct {
	All   bool     `json:"all"`
	Rooms []string `json:"rooms"`
}

// ListenerJoinParams carries the requested room; empty means a synthetic
// peer-private room.
type ListenerJoinParams struct {
	Room string `json:"room"`
}

// ListenerAck is the listener_join reply.
type ListenerAck struct {
	Room string `json:"room"`
}

// AudioChunkParams is the speaker's audio payload. All/Rooms are optional
// per-message scope overrides; a non-nil Rooms always wins (see the fanout
// rules in signal).
type AudioChunkParams struct {
	Chunk []byte   `json:"chunk"`
	All   bool     `json:"all"`
	Rooms []string `json:"rooms"`
}

// KickNotice tells a peer it lost its slot to a newcomer.
type KickNotice struct {
	Room   string `json:"room,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Transport delivers events to peers. It is the relay's only outbound
// surface; the websocket layer implements it, tests fake it. Sends are
// best-effort: a peer that is already gone is not an error the relay
// core acts on.
type Transport interface {
	Send(ctx context.Context, peer, event string, payload any) error
	Broadcast(ctx context.Context, room, event string, payload any)
	Disconnect(peer string) error
}

// Directory maps room names to member peers. Operations are idempotent and
// an unknown room behaves as an empty one. The in-memory implementation
// never returns an error; the Redis-backed one can.
type Directory interface {
	Participants(ctx context.Context, room string) ([]string, error)
	Join(ctx context.Context, peer, room string) error
	Leave(ctx context.Context, peer, room string) error
	// LeaveAll removes the peer from every room it joined; used on
	// disconnect teardown.
	LeaveAll(ctx context.Context, peer string) error
}
