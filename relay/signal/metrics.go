package signal

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/soundbus/audio-relay/internal/otel"
)

var (
	connectionsActive metric.Int64UpDownCounter
	connectionsTotal  metric.Int64Counter

	messagesSent   metric.Int64Counter
	messagesFailed metric.Int64Counter

	chunksRelayed  metric.Int64Counter
	chunksDropped  metric.Int64Counter
	initBroadcasts metric.Int64Counter
	streamResets   metric.Int64Counter
	evictions      metric.Int64Counter

	listenerCount  metric.Int64Gauge
	speakerPresent metric.Int64Gauge
)

func init() {
	factory := otel.NewFactory("audio-relay", "relay")

	factory.Int64UpDownCounter(&connectionsActive, "connections.active",
		metric.WithDescription("Currently open websocket connections"))
	factory.Int64Counter(&connectionsTotal, "connections.total",
		metric.WithDescription("Accepted websocket connections"))

	factory.Int64Counter(&messagesSent, "messages.sent",
		metric.WithDescription("Events delivered to peers"))
	factory.Int64Counter(&messagesFailed, "messages.failed",
		metric.WithDescription("Event deliveries that errored"))

	factory.Int64Counter(&chunksRelayed, "chunks.relayed",
		metric.WithDescription("Audio chunks fanned out"))
	factory.Int64Counter(&chunksDropped, "chunks.dropped",
		metric.WithDescription("Audio chunks rejected from stale senders"))
	factory.Int64Counter(&initBroadcasts, "init.broadcasts",
		metric.WithDescription("Init segments broadcast to all listeners"))
	factory.Int64Counter(&streamResets, "stream.resets",
		metric.WithDescription("stream_reset broadcasts on speaker turnover"))
	factory.Int64Counter(&evictions, "evictions",
		metric.WithDescription("Peers evicted from contested slots"))

	factory.Int64Gauge(&listenerCount, "listeners",
		metric.WithDescription("Listeners currently in the all-listeners group"))
	factory.Int64Gauge(&speakerPresent, "speaker.present",
		metric.WithDescription("1 when a speaker holds the slot"))
}
