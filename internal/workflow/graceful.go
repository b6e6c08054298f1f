package workflow

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundbus/audio-relay/internal/log"
)

type ShutdownAction func(ctx context.Context)

// WaitGracefulShutdown blocks until SIGINT/SIGTERM, then runs action with a
// deadline. A panicking or overdue action does not block process exit.
func WaitGracefulShutdown(
	ctx context.Context,
	logger *log.Logger,
	action ShutdownAction,
	timeout time.Duration,
) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	cleanCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic during shutdown", log.Any("error", r))
			}
		}()
		logger.Info("Starting graceful shutdown")
		action(cleanCtx)
		close(done)
	}()

	select {
	case <-cleanCtx.Done():
		logger.Warn("Shutdown timeout exceeded, forcing exit")
	case <-done:
		logger.Info("Graceful shutdown completed")
	}
}
