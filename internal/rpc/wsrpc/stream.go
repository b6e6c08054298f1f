package wsrpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/soundbus/audio-relay/internal/errors"
	"github.com/soundbus/audio-relay/internal/log"
)

const (
	ErrBufferFull errors.Code = "buffer_full"
)

const (
	pingInterval = 10 * time.Second
	pingTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	bufMessages  = 16
)

// wsStream adapts a websocket connection to rpc.ObjectStream. Writes go
// through a buffered action channel consumed by a single pump goroutine; a
// full buffer closes the connection rather than blocking the caller.
type wsStream struct {
	conn  *websocket.Conn
	chBuf chan func() error

	connCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	logger    *log.Logger
}

func newStream(conn *websocket.Conn, logger *log.Logger) *wsStream {
	return &wsStream{
		conn:   conn,
		chBuf:  make(chan func() error, bufMessages),
		logger: logger,
	}
}

func (ws *wsStream) Open(ctx context.Context) error {
	ws.connCtx, ws.cancel = context.WithCancel(ctx)

	go func() {
		err := ws.writePump(ws.connCtx)
		ws.close(err)
	}()
	return nil
}

func (ws *wsStream) Write(ctx context.Context, obj any) error {
	select {
	case <-ctx.Done():
		return net.ErrClosed
	default:
	}

	action := func() error {
		ctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		return wsjson.Write(ctx, ws.conn, obj)
	}

	select {
	case ws.chBuf <- action:
		return nil
	default:
		ws.close(ErrBufferFull)
		return ErrBufferFull
	}
}

func (ws *wsStream) Read(ctx context.Context, v any) error {
	// read failure tears the connection down; the rpc layer stops its loop
	if err := wsjson.Read(ctx, ws.conn, v); err != nil {
		ws.close(err)
		return err
	}
	return nil
}

func (ws *wsStream) Close() error {
	ws.close(nil)
	return nil
}

func (ws *wsStream) close(err error) {
	ws.closeOnce.Do(func() {
		abandoned := false
		code := websocket.StatusNormalClosure

		switch {
		case err == nil:
		case websocket.CloseStatus(err) != -1:
			ws.logger.Info("connection closed by peer", log.Any("code", websocket.CloseStatus(err)))
			abandoned = true
		case errors.Is(err, net.ErrClosed):
			abandoned = true
		case errors.Is(err, ErrBufferFull):
			ws.logger.Warn("connection closed, write buffer full")
			code = websocket.StatusPolicyViolation
		default:
			ws.logger.Error("connection closed", log.Error(err))
			code = websocket.StatusInternalError
		}

		if abandoned {
			_ = ws.conn.CloseNow()
		} else {
			_ = ws.conn.Close(code, "bye")
		}
		ws.cancel()
	})
}

func (ws *wsStream) wait() {
	<-ws.connCtx.Done()
}

func (ws *wsStream) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ws.ping(ctx); err != nil {
				return err
			}
		case action, ok := <-ws.chBuf:
			if !ok {
				return net.ErrClosed
			}
			if err := action(); err != nil {
				return err
			}
		}
	}
}

func (ws *wsStream) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return ws.conn.Ping(ctx)
}
