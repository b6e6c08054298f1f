package wsrpc

import (
	"net/http"

	"github.com/soundbus/audio-relay/internal/rpc"
)

// ConnectionHooks customizes connection lifecycle behavior.
type ConnectionHooks[T any] interface {
	// OnVerify runs before the websocket upgrade; returning false rejects
	// the connection. The returned T seeds the per-connection state.
	OnVerify(r *http.Request) (*T, bool, error)

	// OnConnect runs after the websocket is established, before the read
	// loop starts.
	OnConnect(state rpc.ConnState[T])

	// OnDisconnect runs after the connection is gone.
	OnDisconnect(state rpc.ConnState[T], closeCode int)
}

type noopHooks[T any] struct{}

func (noopHooks[T]) OnVerify(*http.Request) (*T, bool, error) { return new(T), true, nil }
func (noopHooks[T]) OnConnect(rpc.ConnState[T])               {}
func (noopHooks[T]) OnDisconnect(rpc.ConnState[T], int)       {}
