package signal

import (
	"context"

	"golang.org/x/time/rate"
)

// relayContext is the per-connection state threaded through RPC handlers.
type relayContext struct {
	peerID string
	userID string // set when an auth token was presented
	reqCtx context.Context

	// ctrlLimiter throttles membership churn (joins, target changes);
	// the audio path is never rate limited.
	ctrlLimiter *rate.Limiter
}

const (
	ctrlRatePerSec = 5
	ctrlBurst      = 10
)

func newRelayContext(reqCtx context.Context) *relayContext {
	return &relayContext{
		reqCtx:      reqCtx,
		ctrlLimiter: rate.NewLimiter(rate.Limit(ctrlRatePerSec), ctrlBurst),
	}
}
