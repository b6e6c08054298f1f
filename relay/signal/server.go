package signal

import (
	"context"
	"encoding/json"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/internal/rpc"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/session"
)

// Server implements the relay's signaling methods on top of an RPC method
// table. All session mutation happens in session.State under its lock;
// handlers snapshot a decision there and then act on the transport with no
// lock held, so a slow peer never blocks admission.
type Server struct {
	rpc.Handler[relayContext]

	session   *session.State
	dir       relay.Directory
	transport relay.Transport
	logger    *log.Logger
}

func NewServer(
	handler rpc.Handler[relayContext],
	sess *session.State,
	dir relay.Directory,
	transport relay.Transport,
	logger *log.Logger,
) *Server {
	s := &Server{
		Handler:   handler,
		session:   sess,
		dir:       dir,
		transport: transport,
		logger:    logger,
	}
	s.register()
	return s
}

func (s *Server) register() {
	s.Def(relay.MethodSpeakerJoin, s.handleSpeakerJoin)
	s.Def(relay.MethodListenerJoin, s.handleListenerJoin)
	s.Def(relay.MethodSpeakerSetTargets, s.handleSetTargets)
	s.Def(relay.MethodAudioChunk, s.handleAudioChunk)
}

// handleSpeakerJoin claims the speaker slot. Order matters: current slot
// holders are evicted first, then the session flips to the newcomer, then
// listeners get stream_reset so they drop decoder state before the next
// init segment arrives.
func (s *Server) handleSpeakerJoin(state rpc.ConnState[relayContext], params *json.RawMessage) (any, error) {
	rctx := state.Get()
	if !rctx.ctrlLimiter.Allow() {
		return nil, rpc.ErrInvalidRequest("too many control requests")
	}

	var req relay.ScopeParams
	if params != nil {
		if err := rpc.BindParams(params, &req); err != nil {
			return nil, err
		}
	}

	ctx := rctx.reqCtx
	s.evictRoom(ctx, relay.RoomSpeakers, rctx.peerID, relay.EventSpeakerKicked, relay.KickNotice{
		Reason: relay.KickReasonNewSpeaker,
	})

	scope := s.session.Begin(rctx.peerID, req.All, req.Rooms)
	if err := s.dir.Join(ctx, rctx.peerID, relay.RoomSpeakers); err != nil {
		s.logger.Error("Failed to record speaker membership",
			log.String("peerId", rctx.peerID),
			log.Error(err))
	}

	s.transport.Broadcast(ctx, relay.RoomAllListeners, relay.EventStreamReset, nil)
	streamResets.Add(ctx, 1)

	s.logger.Info("Speaker joined",
		log.String("peerId", rctx.peerID),
		log.Bool("all", scope.All),
		log.Strings("rooms", scope.Rooms))
	return scope, nil
}

// handleListenerJoin admits a listener into a room, evicting whoever held
// it. The cached init segment is delivered before the directory join so the
// listener never receives a data chunk it cannot decode.
func (s *Server) handleListenerJoin(state rpc.ConnState[relayContext], params *json.RawMessage) (any, error) {
	rctx := state.Get()
	if !rctx.ctrlLimiter.Allow() {
		return nil, rpc.ErrInvalidRequest("too many control requests")
	}

	var req relay.ListenerJoinParams
	if params != nil {
		if err := rpc.BindParams(params, &req); err != nil {
			return nil, err
		}
	}
	room := req.Room
	if room == "" {
		room = "listener:" + rctx.peerID
	}

	ctx := rctx.reqCtx
	initSeg, haveInit := s.session.InitSegment()

	s.evictRoom(ctx, room, rctx.peerID, relay.EventListenerKicked, relay.KickNotice{Room: room})

	if haveInit {
		if err := s.transport.Send(ctx, rctx.peerID, relay.EventAudioInit, initSeg); err != nil {
			s.logger.Debug("Failed to replay init segment",
				log.String("peerId", rctx.peerID),
				log.Error(err))
		}
	}

	if err := s.dir.Join(ctx, rctx.peerID, room); err != nil {
		s.logger.Error("Failed to join room",
			log.String("peerId", rctx.peerID),
			log.String("room", room),
			log.Error(err))
	}
	if err := s.dir.Join(ctx, rctx.peerID, relay.RoomAllListeners); err != nil {
		s.logger.Error("Failed to join listener group",
			log.String("peerId", rctx.peerID),
			log.Error(err))
	}

	s.logger.Info("Listener joined",
		log.String("peerId", rctx.peerID),
		log.String("room", room))
	return relay.ListenerAck{Room: room}, nil
}

// handleSetTargets retargets the live stream. A caller that is not the
// current speaker gets no reply body and no error; stale senders are
// ignored rather than corrected.
func (s *Server) handleSetTargets(state rpc.ConnState[relayContext], params *json.RawMessage) (any, error) {
	rctx := state.Get()
	if !rctx.ctrlLimiter.Allow() {
		return nil, rpc.ErrInvalidRequest("too many control requests")
	}

	var req relay.ScopeParams
	if params != nil {
		if err := rpc.BindParams(params, &req); err != nil {
			return nil, err
		}
	}

	scope, ok := s.session.SetTargets(rctx.peerID, req.All, req.Rooms)
	if !ok {
		return nil, nil
	}

	s.logger.Info("Stream retargeted",
		log.String("peerId", rctx.peerID),
		log.Bool("all", scope.All),
		log.Strings("rooms", scope.Rooms))
	return scope, nil
}

// handleAudioChunk is the hot path. Anything malformed or stale is dropped
// without a reply; a flaky speaker must never learn relay internals from
// error text, and the next valid chunk just flows.
func (s *Server) handleAudioChunk(state rpc.ConnState[relayContext], params *json.RawMessage) (any, error) {
	rctx := state.Get()

	var req relay.AudioChunkParams
	if err := rpc.BindParams(params, &req); err != nil {
		return nil, nil
	}
	if len(req.Chunk) == 0 {
		return nil, nil
	}

	route, ok := s.session.AdmitChunk(rctx.peerID, req.Chunk, req.All, req.Rooms)
	if !ok {
		chunksDropped.Add(rctx.reqCtx, 1)
		return nil, nil
	}

	ctx := rctx.reqCtx
	switch {
	case route.Init:
		s.transport.Broadcast(ctx, relay.RoomAllListeners, relay.EventAudioInit, req.Chunk)
		initBroadcasts.Add(ctx, 1)
	case route.All:
		s.transport.Broadcast(ctx, relay.RoomAllListeners, relay.EventAudioChunk, req.Chunk)
		chunksRelayed.Add(ctx, 1)
	default:
		for _, room := range route.Rooms {
			s.transport.Broadcast(ctx, room, relay.EventAudioChunk, req.Chunk)
		}
		chunksRelayed.Add(ctx, 1)
	}
	return nil, nil
}

// evictRoom snapshots a room's occupants, then notifies and disconnects
// each one except self. Both steps are best-effort: a peer that vanished
// mid-eviction already satisfies the goal.
func (s *Server) evictRoom(ctx context.Context, room, self, event string, notice relay.KickNotice) {
	occupants, err := s.dir.Participants(ctx, room)
	if err != nil {
		s.logger.Error("Failed to snapshot room for eviction",
			log.String("room", room),
			log.Error(err))
		return
	}

	for _, peerID := range occupants {
		if peerID == self {
			continue
		}
		if err := s.transport.Send(ctx, peerID, event, notice); err != nil {
			s.logger.Debug("Eviction notice undeliverable",
				log.String("peerId", peerID),
				log.Error(err))
		}
		if err := s.transport.Disconnect(peerID); err != nil {
			s.logger.Debug("Eviction disconnect failed",
				log.String("peerId", peerID),
				log.Error(err))
		}
		evictions.Add(ctx, 1)
	}
}
