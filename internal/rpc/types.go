package rpc

import (
	"context"
	"encoding/json"
	"io"
)

// ObjectStream is the framing boundary: a reliable, ordered stream of JSON
// values owned by a concrete transport (websocket, in-memory pipe in tests).
type ObjectStream interface {
	Open(ctx context.Context) error
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, obj any) error
	io.Closer
}

// ConnState holds the per-connection value of type T shared by all handlers
// dispatched on that connection.
type ConnState[T any] interface {
	Get() *T
	Set(value *T)
	Peer() Conn[T]
}

// MethodFunc handles one inbound method call; the returned value (or error)
// becomes the response when the inbound message carried an ID.
type MethodFunc[T any] func(state ConnState[T], params *json.RawMessage) (any, error)

// AsyncMethodFunc handles a method on its own goroutine and replies explicitly.
type AsyncMethodFunc[T any] func(state ConnState[T], params *json.RawMessage, reply Reply)

type Reply func(result any, err error)

type methodTable[T any] interface {
	Def(method string, fn MethodFunc[T])
	DefAsync(method string, fn AsyncMethodFunc[T])
}

// Handler owns a method table; every Conn it creates dispatches into it.
type Handler[T any] interface {
	methodTable[T]
	NewConn(stream ObjectStream, v *T) Conn[T]
}

// Client is the outbound surface of a connection.
type Client interface {
	Call(ctx context.Context, method string, params, result any) error
	Notify(ctx context.Context, method string, params any) error
	io.Closer
}

type Conn[T any] interface {
	Client
	Open(ctx context.Context) error
	State() ConnState[T]
}

// Peer is a single connection bundled with its own method table.
type Peer[T any] interface {
	Conn[T]
	methodTable[T]
}
