package rpc

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/soundbus/audio-relay/internal/errors"
	"github.com/soundbus/audio-relay/internal/log"
)

type handlerImpl[T any] struct {
	methods map[string]AsyncMethodFunc[T]
	logger  *log.Logger
}

// NewHandler creates a handler with an empty method table. Def calls must
// happen before the first connection starts reading.
func NewHandler[T any](logger *log.Logger) Handler[T] {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &handlerImpl[T]{
		methods: make(map[string]AsyncMethodFunc[T]),
		logger:  logger,
	}
}

// NewPeer bundles a fresh handler with a single connection over stream.
func NewPeer[T any](stream ObjectStream, logger *log.Logger) Peer[T] {
	h := NewHandler[T](logger).(*handlerImpl[T])
	return &peerImpl[T]{
		handlerImpl: h,
		Conn:        h.NewConn(stream, new(T)),
	}
}

type peerImpl[T any] struct {
	*handlerImpl[T]
	Conn[T]
}

func (h *handlerImpl[T]) Def(method string, fn MethodFunc[T]) {
	if _, ok := h.methods[method]; ok {
		panic("method already defined: " + method)
	}
	h.methods[method] = func(state ConnState[T], params *json.RawMessage, reply Reply) {
		reply(fn(state, params))
	}
}

func (h *handlerImpl[T]) DefAsync(method string, fn AsyncMethodFunc[T]) {
	if _, ok := h.methods[method]; ok {
		panic("method already defined: " + method)
	}
	h.methods[method] = func(state ConnState[T], params *json.RawMessage, reply Reply) {
		go fn(state, params, reply)
	}
}

func (h *handlerImpl[T]) NewConn(stream ObjectStream, v *T) Conn[T] {
	return newConn(stream, v, h.dispatch, h.logger)
}

func (h *handlerImpl[T]) dispatch(ctx context.Context, conn *connImpl[T], req *Request) {
	h.logger.Debug("RPC request received",
		log.String("method", req.Method),
		log.Any("id", req.ID))

	fn, ok := h.methods[req.Method]
	if !ok {
		h.logger.Warn("Method not found",
			log.String("method", req.Method),
			log.Any("id", req.ID))
		_ = conn.replyError(ctx, req.ID, ErrMethodNotFound(req.Method))
		return
	}

	fn(conn.state, req.Params, func(result any, err error) {
		if err := h.reply(ctx, conn, req, result, err); err != nil {
			h.logger.Error("Failed to send RPC reply",
				log.String("method", req.Method),
				log.Any("id", req.ID),
				log.Error(err))
		}
	})
}

func (h *handlerImpl[T]) reply(
	ctx context.Context,
	conn *connImpl[T],
	req *Request,
	result any,
	err error,
) error {
	if err == nil {
		return conn.reply(ctx, req.ID, result)
	}

	if rpcErr, ok := errors.As[*Error](err); ok {
		h.logger.Error("RPC handler returned error",
			log.String("method", req.Method),
			log.Int64("error_code", rpcErr.Code),
			log.String("error_message", rpcErr.Message))
		return conn.replyError(ctx, req.ID, rpcErr)
	}

	h.logger.Error("RPC handler returned unexpected error",
		log.String("method", req.Method),
		log.Error(err))
	// internal details stay on the server side
	return conn.replyError(ctx, req.ID, ErrInternal("unknown error"))
}

// connState is the per-connection T shared by all method invocations.
type connState[T any] struct {
	conn Conn[T]
	v    atomic.Pointer[T]
}

func newConnState[T any](conn Conn[T], v *T) ConnState[T] {
	s := &connState[T]{conn: conn}
	s.v.Store(v)
	return s
}

func (s *connState[T]) Get() *T       { return s.v.Load() }
func (s *connState[T]) Set(value *T)  { s.v.Store(value) }
func (s *connState[T]) Peer() Conn[T] { return s.conn }
