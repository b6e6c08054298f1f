package signal

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/soundbus/audio-relay/internal/jwt"
	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/internal/rpc"
	"github.com/soundbus/audio-relay/internal/rpc/wsrpc"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/session"
)

// NewWSHook wires connection lifecycle into the relay: registration on
// connect, full state teardown on disconnect. When auth is nil every
// connection is admitted anonymously.
func NewWSHook(
	auth jwt.Auth,
	sess *session.State,
	dir relay.Directory,
	connMgr *ConnManager,
	logger *log.Logger,
) wsrpc.ConnectionHooks[relayContext] {
	return &wsHookImpl{
		auth:    auth,
		session: sess,
		dir:     dir,
		connMgr: connMgr,
		logger:  logger,
	}
}

type wsHookImpl struct {
	auth    jwt.Auth
	session *session.State
	dir     relay.Directory
	connMgr *ConnManager
	logger  *log.Logger
}

func (h *wsHookImpl) OnVerify(r *http.Request) (*relayContext, bool, error) {
	rctx := newRelayContext(r.Context())
	if h.auth == nil {
		return rctx, true, nil
	}

	payload, err := h.auth.Verify(bearerToken(r))
	if err != nil {
		h.logger.Info("Connection rejected",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return nil, false, nil
	}
	rctx.userID = payload.UserID
	return rctx, true, nil
}

func (h *wsHookImpl) OnConnect(state rpc.ConnState[relayContext]) {
	rctx := state.Get()
	rctx.peerID = uuid.NewString()
	state.Set(rctx)

	h.connMgr.AddPeer(rctx.peerID, state.Peer())

	connectionsTotal.Add(rctx.reqCtx, 1)
	connectionsActive.Add(rctx.reqCtx, 1)

	h.logger.Info("Peer connected",
		log.String("peerId", rctx.peerID),
		log.String("userId", rctx.userID))
}

// OnDisconnect tears down everything the peer held. The request context is
// dead by now, so directory cleanup runs on a background context.
func (h *wsHookImpl) OnDisconnect(state rpc.ConnState[relayContext], closeCode int) {
	rctx := state.Get()
	if rctx == nil || rctx.peerID == "" {
		return
	}

	ctx := context.Background()
	wasSpeaker := h.session.DropPeer(rctx.peerID)
	if err := h.dir.LeaveAll(ctx, rctx.peerID); err != nil {
		h.logger.Error("Failed to clean up room membership",
			log.String("peerId", rctx.peerID),
			log.Error(err))
	}
	h.connMgr.RemovePeer(rctx.peerID)

	connectionsActive.Add(ctx, -1)

	h.logger.Info("Peer disconnected",
		log.String("peerId", rctx.peerID),
		log.Bool("wasSpeaker", wasSpeaker),
		log.Int("closeCode", closeCode))
}

// bearerToken pulls a token from the Authorization header or, for browser
// websocket clients that cannot set headers, the token query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
