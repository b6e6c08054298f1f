package signal

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundbus/audio-relay/internal/log"
	"github.com/soundbus/audio-relay/relay"
	"github.com/soundbus/audio-relay/relay/directory"
	"github.com/soundbus/audio-relay/relay/session"
)

type countingDirectory struct {
	*directory.Memory
	samples atomic.Int64
}

func (d *countingDirectory) Participants(ctx context.Context, room string) ([]string, error) {
	d.samples.Add(1)
	return d.Memory.Participants(ctx, room)
}

func TestReporterSamplesOnTick(t *testing.T) {
	dir := &countingDirectory{Memory: directory.NewMemory()}
	sess := session.NewState()
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, dir.Join(ctx, "p1", relay.RoomAllListeners))

	reporter := NewReporter(clock, sess, dir, log.NewNop())
	done := make(chan struct{})
	go func() {
		reporter.Run(ctx)
		close(done)
	}()

	// wait for the ticker, then fire it
	clock.BlockUntil(1)
	clock.Advance(reportInterval)

	assert.Eventually(t, func() bool {
		return dir.samples.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
