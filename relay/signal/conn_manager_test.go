package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/soundbus/audio-relay/internal/errors"
	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/internal/rpc"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/directory"
)

type notified struct {
	method string
	params any
}

type mockConn struct {
	notifications []notified
	notifyErr     error
	closed        bool
}

func (m *mockConn) Open(context.Context) error { return nil }

func (m *mockConn) Call(context.Context, string, any, any) error { return nil }

func (m *mockConn) Notify(_ context.Context, method string, params any) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notifications = append(m.notifications, notified{method: method, params: params})
	return nil
}

func (m *mockConn) Close() error {
	m.closed = true
	return nil
}

func (m *mockConn) State() rpc.ConnState[relayContext] { return nil }

type ConnManagerSuite struct {
	suite.Suite
	dir     *directory.Memory
	manager *ConnManager
	ctx     context.Context
}

func TestConnManagerSuite(t *testing.T) {
	suite.Run(t, new(ConnManagerSuite))
}

func (s *ConnManagerSuite) SetupTest() {
	s.dir = directory.NewMemory()
	s.manager = NewConnManager(s.dir, log.NewNop())
	s.ctx = context.Background()
}

func (s *ConnManagerSuite) TestSendToPeer() {
	conn := &mockConn{}
	s.manager.AddPeer("p1", conn)

	err := s.manager.Send(s.ctx, "p1", "hello", "payload")
	s.Require().NoError(err)
	s.Require().Len(conn.notifications, 1)
	s.Equal("hello", conn.notifications[0].method)
	s.Equal("payload", conn.notifications[0].params)
}

func (s *ConnManagerSuite) TestSendToUnknownPeer() {
	err := s.manager.Send(s.ctx, "ghost", "hello", nil)
	s.True(errors.Is(err, relay.ErrPeerGone))
}

func (s *ConnManagerSuite) TestRemovedPeerIsGone() {
	conn := &mockConn{}
	s.manager.AddPeer("p1", conn)
	s.manager.RemovePeer("p1")

	err := s.manager.Send(s.ctx, "p1", "hello", nil)
	s.True(errors.Is(err, relay.ErrPeerGone))
}

func (s *ConnManagerSuite) TestBroadcastReachesRoomMembers() {
	in1, in2, out := &mockConn{}, &mockConn{}, &mockConn{}
	s.manager.AddPeer("in1", in1)
	s.manager.AddPeer("in2", in2)
	s.manager.AddPeer("out", out)

	s.Require().NoError(s.dir.Join(s.ctx, "in1", "room"))
	s.Require().NoError(s.dir.Join(s.ctx, "in2", "room"))

	s.manager.Broadcast(s.ctx, "room", "event", "payload")

	s.Len(in1.notifications, 1)
	s.Len(in2.notifications, 1)
	s.Empty(out.notifications)
}

func (s *ConnManagerSuite) TestBroadcastSurvivesFailingPeer() {
	bad := &mockConn{notifyErr: errors.New("boom", "send failed")}
	good := &mockConn{}
	s.manager.AddPeer("bad", bad)
	s.manager.AddPeer("good", good)

	s.Require().NoError(s.dir.Join(s.ctx, "bad", "room"))
	s.Require().NoError(s.dir.Join(s.ctx, "good", "room"))

	s.manager.Broadcast(s.ctx, "room", "event", nil)

	s.Len(good.notifications, 1)
}

func (s *ConnManagerSuite) TestBroadcastSkipsDepartedMember() {
	// directory still lists the peer but its connection is gone
	s.Require().NoError(s.dir.Join(s.ctx, "gone", "room"))

	s.manager.Broadcast(s.ctx, "room", "event", nil)
}

func (s *ConnManagerSuite) TestDisconnect() {
	conn := &mockConn{}
	s.manager.AddPeer("p1", conn)

	s.Require().NoError(s.manager.Disconnect("p1"))
	s.True(conn.closed)

	err := s.manager.Disconnect("ghost")
	s.True(errors.Is(err, relay.ErrPeerGone))
}
