package directory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisDirectorySuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	dir       *Redis
	ctx       context.Context
}

func TestRedisDirectorySuite(t *testing.T) {
	suite.Run(t, new(RedisDirectorySuite))
}

func (s *RedisDirectorySuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.miniRedis = mr

	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.dir = NewRedis(s.client, "test")
	s.ctx = context.Background()
}

func (s *RedisDirectorySuite) TearDownTest() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.miniRedis != nil {
		s.miniRedis.Close()
	}
}

func (s *RedisDirectorySuite) TestJoinAndParticipants() {
	s.Require().NoError(s.dir.Join(s.ctx, "p2", "room"))
	s.Require().NoError(s.dir.Join(s.ctx, "p1", "room"))

	peers, err := s.dir.Participants(s.ctx, "room")
	s.Require().NoError(err)
	s.Equal([]string{"p1", "p2"}, peers)
}

func (s *RedisDirectorySuite) TestUnknownRoomIsEmpty() {
	peers, err := s.dir.Participants(s.ctx, "nowhere")
	s.Require().NoError(err)
	s.Empty(peers)
}

func (s *RedisDirectorySuite) TestLeave() {
	s.Require().NoError(s.dir.Join(s.ctx, "p1", "room"))
	s.Require().NoError(s.dir.Leave(s.ctx, "p1", "room"))

	peers, err := s.dir.Participants(s.ctx, "room")
	s.Require().NoError(err)
	s.Empty(peers)

	// reverse index cleaned too
	s.False(s.miniRedis.Exists("test:peer:p1"))
}

func (s *RedisDirectorySuite) TestLeaveAll() {
	s.Require().NoError(s.dir.Join(s.ctx, "p1", "a"))
	s.Require().NoError(s.dir.Join(s.ctx, "p1", "b"))
	s.Require().NoError(s.dir.Join(s.ctx, "p2", "b"))

	s.Require().NoError(s.dir.LeaveAll(s.ctx, "p1"))

	peersA, err := s.dir.Participants(s.ctx, "a")
	s.Require().NoError(err)
	s.Empty(peersA)

	peersB, err := s.dir.Participants(s.ctx, "b")
	s.Require().NoError(err)
	s.Equal([]string{"p2"}, peersB)

	s.False(s.miniRedis.Exists("test:peer:p1"))
}

func (s *RedisDirectorySuite) TestKeyIsolationByPrefix() {
	other := NewRedis(s.client, "other")

	s.Require().NoError(s.dir.Join(s.ctx, "p1", "room"))

	peers, err := other.Participants(s.ctx, "room")
	s.Require().NoError(err)
	s.Empty(peers)
}
