package signal

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/session"
)

const reportInterval = 15 * time.Second

// Reporter periodically samples relay occupancy into gauges. The clock is
// injectable so tests can step time.
type Reporter struct {
	clock   clockwork.Clock
	session *session.State
	dir     relay.Directory
	logger  *log.Logger
}

func NewReporter(clock clockwork.Clock, sess *session.State, dir relay.Directory, logger *log.Logger) *Reporter {
	return &Reporter{
		clock:   clock,
		session: sess,
		dir:     dir,
		logger:  logger,
	}
}

// Run samples until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.sample(ctx)
		}
	}
}

func (r *Reporter) sample(ctx context.Context) {
	listeners, err := r.dir.Participants(ctx, relay.RoomAllListeners)
	if err != nil {
		r.logger.Warn("Occupancy sample failed", log.Error(err))
		return
	}
	listenerCount.Record(ctx, int64(len(listeners)))

	var present int64
	if _, ok := r.session.Speaker(); ok {
		present = 1
	}
	speakerPresent.Record(ctx, present)
}
