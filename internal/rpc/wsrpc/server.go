package wsrpc

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/internal/rpc"
)

// Server upgrades HTTP requests to websocket RPC connections sharing one
// method table.
type Server[T any] struct {
	rpc.Handler[T]
	hooks          ConnectionHooks[T]
	allowedOrigins []string
	logger         *log.Logger
}

func NewServer[T any](
	hooks ConnectionHooks[T],
	allowedOrigins []string,
	logger *log.Logger,
) *Server[T] {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if hooks == nil {
		hooks = noopHooks[T]{}
	}
	return &Server[T]{
		Handler:        rpc.NewHandler[T](logger),
		hooks:          hooks,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// HandleWebSocket is the http.HandlerFunc entry point for relay connections.
func (s *Server[T]) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	initValue, passed, err := s.hooks.OnVerify(r)
	if err != nil {
		s.logger.Warn("Connection verification error",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		http.Error(w, "fail to verify", http.StatusInternalServerError)
		return
	} else if !passed {
		s.logger.Info("Connection verification failed",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.allowedOrigins,
	})
	if err != nil {
		s.logger.Error("WebSocket open failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	stream := newStream(wsConn, s.logger)
	rpcConn := s.Handler.NewConn(stream, initValue)

	s.logger.Info("WebSocket connection established",
		log.String("remote_addr", r.RemoteAddr))

	s.hooks.OnConnect(rpcConn.State())
	if err := rpcConn.Open(r.Context()); err != nil {
		s.logger.Error("Failed to open RPC connection",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	stream.wait()

	// TODO: propagate the real close code from the stream
	s.hooks.OnDisconnect(rpcConn.State(), int(websocket.StatusAbnormalClosure))
}
