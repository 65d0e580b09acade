// Package metrics registers the simulation counters on the global
// OpenTelemetry meter provider. No exporter is wired here; deployments that
// want the numbers install a provider before the first room spins up.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	ticks           metric.Int64Counter
	broadcasts      metric.Int64Counter
	broadcastErrors metric.Int64Counter
	sessionsDropped metric.Int64Counter
	roomsActive     metric.Int64UpDownCounter
}

var (
	once sync.Once
	inst instruments
)

func get() instruments {
	once.Do(func() {
		meter := otel.Meter("flag-rush")
		inst.ticks, _ = meter.Int64Counter("flagrush.ticks",
			metric.WithDescription("simulation ticks advanced"))
		inst.broadcasts, _ = meter.Int64Counter("flagrush.broadcasts",
			metric.WithDescription("state snapshots broadcast"))
		inst.broadcastErrors, _ = meter.Int64Counter("flagrush.broadcast_errors",
			metric.WithDescription("per-connection broadcast delivery failures"))
		inst.sessionsDropped, _ = meter.Int64Counter("flagrush.sessions_dropped",
			metric.WithDescription("sessions removed by the liveness sweep"))
		inst.roomsActive, _ = meter.Int64UpDownCounter("flagrush.rooms_active",
			metric.WithDescription("rooms currently alive"))
	})
	return inst
}

func TickAdvanced()      { get().ticks.Add(context.Background(), 1) }
func SnapshotBroadcast() { get().broadcasts.Add(context.Background(), 1) }
func BroadcastFailed()   { get().broadcastErrors.Add(context.Background(), 1) }
func SessionDropped()    { get().sessionsDropped.Add(context.Background(), 1) }
func RoomOpened()        { get().roomsActive.Add(context.Background(), 1) }
func RoomClosed()        { get().roomsActive.Add(context.Background(), -1) }
