package signal

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/soundbus/audio-relay/internal/jwt"
	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/directory"
	"github.com/soundbus/audio-relay/relay/session"
)

type WSHookSuite struct {
	suite.Suite
	auth    jwt.Auth
	session *session.State
	dir     *directory.Memory
	connMgr *ConnManager
}

func TestWSHookSuite(t *testing.T) {
	suite.Run(t, new(WSHookSuite))
}

func (s *WSHookSuite) SetupTest() {
	s.auth = jwt.NewAuth("test-secret")
	s.session = session.NewState()
	s.dir = directory.NewMemory()
	s.connMgr = NewConnManager(s.dir, log.NewNop())
}

func (s *WSHookSuite) newHook(auth jwt.Auth) *wsHookImpl {
	hook := NewWSHook(auth, s.session, s.dir, s.connMgr, log.NewNop())
	impl, ok := hook.(*wsHookImpl)
	s.Require().True(ok)
	return impl
}

func (s *WSHookSuite) TestVerifyWithoutAuthAdmitsAnyone() {
	hook := s.newHook(nil)

	r := httptest.NewRequest("GET", "/ws", nil)
	rctx, ok, err := hook.OnVerify(r)
	s.Require().NoError(err)
	s.True(ok)
	s.Require().NotNil(rctx)
	s.Empty(rctx.userID)
}

func (s *WSHookSuite) TestVerifyAcceptsValidToken() {
	hook := s.newHook(s.auth)

	token, err := s.auth.Sign("user-1")
	s.Require().NoError(err)

	r := httptest.NewRequest("GET", "/ws?token="+token, nil)
	rctx, ok, err := hook.OnVerify(r)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("user-1", rctx.userID)
}

func (s *WSHookSuite) TestVerifyAcceptsBearerHeader() {
	hook := s.newHook(s.auth)

	token, err := s.auth.Sign("user-2")
	s.Require().NoError(err)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rctx, ok, err := hook.OnVerify(r)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("user-2", rctx.userID)
}

func (s *WSHookSuite) TestVerifyRejectsBadToken() {
	hook := s.newHook(s.auth)

	r := httptest.NewRequest("GET", "/ws?token=garbage", nil)
	_, ok, err := hook.OnVerify(r)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *WSHookSuite) TestVerifyRejectsMissingToken() {
	hook := s.newHook(s.auth)

	r := httptest.NewRequest("GET", "/ws", nil)
	_, ok, err := hook.OnVerify(r)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *WSHookSuite) TestConnectRegistersPeer() {
	hook := s.newHook(nil)

	state := &fakeConnState{rctx: newRelayContext(context.Background())}
	hook.OnConnect(state)

	s.NotEmpty(state.rctx.peerID)
	s.Equal(1, s.connMgr.PeerCount())
}

func (s *WSHookSuite) TestDisconnectTearsDownEverything() {
	hook := s.newHook(nil)
	ctx := context.Background()

	state := &fakeConnState{rctx: newRelayContext(ctx)}
	hook.OnConnect(state)
	peerID := state.rctx.peerID

	s.session.Begin(peerID, true, nil)
	s.Require().NoError(s.dir.Join(ctx, peerID, relay.RoomSpeakers))

	hook.OnDisconnect(state, 1001)

	_, present := s.session.Speaker()
	s.False(present)

	peers, err := s.dir.Participants(ctx, relay.RoomSpeakers)
	s.Require().NoError(err)
	s.Empty(peers)

	s.Equal(0, s.connMgr.PeerCount())
}

func (s *WSHookSuite) TestDisconnectBeforeConnectIsNoop() {
	hook := s.newHook(nil)

	state := &fakeConnState{rctx: newRelayContext(context.Background())}
	hook.OnDisconnect(state, 1006)
}
