package signal

import (
	"context"
	"sync"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/internal/rpc"
	"github.com/soundbus/audio-relay/relay"
)

// ConnManager tracks live websocket connections by peer ID and implements
// relay.Transport on top of them, resolving broadcast groups against the
// room directory. Group membership is snapshotted at call time; a peer
// joining mid-broadcast may or may not see that message.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]rpc.Conn[relayContext]

	dir    relay.Directory
	logger *log.Logger
}

func NewConnManager(dir relay.Directory, logger *log.Logger) *ConnManager {
	return &ConnManager{
		conns:  make(map[string]rpc.Conn[relayContext]),
		dir:    dir,
		logger: logger,
	}
}

func (m *ConnManager) AddPeer(peerID string, conn rpc.Conn[relayContext]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[peerID] = conn

	m.logger.Debug("Peer registered", log.String("peerId", peerID))
}

func (m *ConnManager) RemovePeer(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, peerID)

	m.logger.Debug("Peer removed", log.String("peerId", peerID))
}

func (m *ConnManager) peer(peerID string) rpc.Conn[relayContext] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conns[peerID]
}

// PeerCount reports the number of live connections.
func (m *ConnManager) PeerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Send notifies a single peer. An unknown peer is an error the callers
// treat as best-effort.
func (m *ConnManager) Send(ctx context.Context, peerID, event string, payload any) error {
	conn := m.peer(peerID)
	if conn == nil {
		return relay.ErrPeerGone
	}
	if err := conn.Notify(ctx, event, payload); err != nil {
		messagesFailed.Add(ctx, 1)
		return err
	}
	messagesSent.Add(ctx, 1)
	return nil
}

// Broadcast notifies every current member of room. Individual delivery
// failures are logged and swallowed; the relay never stalls on one peer.
func (m *ConnManager) Broadcast(ctx context.Context, room, event string, payload any) {
	peers, err := m.dir.Participants(ctx, room)
	if err != nil {
		m.logger.Error("Failed to resolve broadcast group",
			log.String("room", room),
			log.Error(err))
		return
	}

	for _, peerID := range peers {
		conn := m.peer(peerID)
		if conn == nil {
			// directory lag after a disconnect; harmless
			continue
		}
		if err := conn.Notify(ctx, event, payload); err != nil {
			messagesFailed.Add(ctx, 1)
			m.logger.Debug("Failed to notify peer",
				log.String("peerId", peerID),
				log.String("room", room),
				log.Error(err))
			continue
		}
		messagesSent.Add(ctx, 1)
	}
}

// Disconnect force-closes a peer's connection.
func (m *ConnManager) Disconnect(peerID string) error {
	conn := m.peer(peerID)
	if conn == nil {
		return relay.ErrPeerGone
	}
	return conn.Close()
}
