package rpc

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"

	"github.com/soundbus/audio-relay/internal/log"
)

type dispatchFunc[T any] func(context.Context, *connImpl[T], *Request)

type connImpl[T any] struct {
	stream   ObjectStream
	state    ConnState[T]
	dispatch dispatchFunc[T]
	sendLock sync.Mutex
	closed   atomic.Bool
	pendings sync.Map // ID -> doneChan
	logger   *log.Logger
}

type doneChan chan *message

func newConn[T any](
	stream ObjectStream,
	v *T,
	dispatch dispatchFunc[T],
	logger *log.Logger,
) *connImpl[T] {
	c := &connImpl[T]{
		stream:   stream,
		dispatch: dispatch,
		logger:   logger,
	}
	c.state = newConnState[T](c, v)
	return c
}

func (c *connImpl[T]) Open(ctx context.Context) error {
	if err := c.stream.Open(ctx); err != nil {
		return err
	}
	go c.readLoop(ctx)
	return nil
}

func (c *connImpl[T]) Close() error {
	return c.close(nil)
}

func (c *connImpl[T]) State() ConnState[T] {
	return c.state
}

func (c *connImpl[T]) Call(ctx context.Context, method string, params, result any) error {
	req, err := newRequestMessage(method, params)
	if err != nil {
		return err
	}
	done, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return c.wait(ctx, req.ID, done, result)
}

func (c *connImpl[T]) Notify(ctx context.Context, method string, params any) error {
	req, err := newNotificationMessage(method, params)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, req)
	return err
}

func (c *connImpl[T]) reply(ctx context.Context, id *ID, result any) error {
	if id == nil {
		// notification, nothing to answer
		return nil
	}
	resp, err := newResponseMessage(*id, result, nil)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, resp)
	return err
}

func (c *connImpl[T]) replyError(ctx context.Context, id *ID, respErr *Error) error {
	if id == nil {
		return nil
	}
	resp, err := newResponseMessage(*id, nil, respErr)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, resp)
	return err
}

func (c *connImpl[T]) close(err error) error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	// collect keys first, then pop, so concurrent waiters see the channel
	// closed exactly once
	var keys []ID
	c.pendings.Range(func(key, _ any) bool {
		keys = append(keys, key.(ID))
		return true
	})
	for _, key := range keys {
		if done := c.popPending(key); done != nil {
			close(done)
		}
	}

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		c.logger.Error("rpc connection closing", log.Error(err))
	}
	return c.stream.Close()
}

func (c *connImpl[T]) readLoop(ctx context.Context) {
	for {
		var m message
		if err := c.stream.Read(ctx, &m); err != nil {
			c.close(err)
			return
		}

		m.classify()
		switch m.kind {
		case kindRequest, kindNotification:
			req := &Request{
				ID:     m.ID,
				Method: *m.Method,
				Params: m.Params,
			}
			c.dispatch(ctx, c, req)

		case kindResponse:
			done := c.popPending(*m.ID)
			if done == nil {
				c.logger.Debug("ignore response with unmatched id", log.Any("id", m.ID))
				continue
			}
			done <- &m
			close(done)

		default:
			c.logger.Warn("ignore message that is neither request nor response")
		}
	}
}

func (c *connImpl[T]) send(ctx context.Context, m *message) (doneChan, error) {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	if c.closed.Load() {
		return nil, ErrClosed
	}

	var done doneChan
	if m.kind == kindRequest {
		done = make(doneChan, 1)
		c.pendings.Store(*m.ID, done)
	}

	if err := c.stream.Write(ctx, m); err != nil {
		if m.kind == kindRequest {
			c.pendings.Delete(*m.ID)
		}
		return nil, err
	}
	return done, nil
}

func (c *connImpl[T]) wait(ctx context.Context, id *ID, done doneChan, result any) error {
	select {
	case <-ctx.Done():
		c.pendings.Delete(*id)
		return ctx.Err()

	case resp, ok := <-done:
		if !ok {
			c.pendings.Delete(*id)
			return ErrClosed
		}
		if resp.Error != nil {
			return resp.Error
		}
		if resp.Result != nil && result != nil {
			return json.Unmarshal(*resp.Result, result)
		}
		return nil
	}
}

func (c *connImpl[T]) popPending(id ID) doneChan {
	v, ok := c.pendings.LoadAndDelete(id)
	if !ok {
		return nil
	}
	return v.(doneChan)
}
