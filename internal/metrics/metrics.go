// Package metrics holds the prometheus collectors of the call coordinator
// and the relay. Collectors are registered on an injected registerer so
// several coordinators can live in one test binary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Calls struct {
	Transitions    *prometheus.CounterVec
	StaleEvents    *prometheus.CounterVec
	JoinResults    *prometheus.CounterVec
	CleanupSteps   *prometheus.CounterVec
	SignalingDrops *prometheus.CounterVec
	ActiveCalls    prometheus.Gauge
}

// NewCalls registers the coordinator collectors on reg. A nil reg keeps
// them unregistered.
func NewCalls(reg prometheus.Registerer) *Calls {
	f := promauto.With(reg)
	return &Calls{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_invitation_transitions_total",
			Help: "Invitation state transitions by trigger and resulting phase",
		}, []string{"trigger", "phase"}),
		StaleEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_stale_events_total",
			Help: "Ignored signaling events and timers by type",
		}, []string{"type"}),
		JoinResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_media_join_total",
			Help: "Media room join attempts by result",
		}, []string{"result"}),
		CleanupSteps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_cleanup_steps_total",
			Help: "Cleanup cascade steps by step and outcome",
		}, []string{"step", "outcome"}),
		SignalingDrops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_signaling_drops_total",
			Help: "Outbound signaling events that could not be sent",
		}, []string{"type"}),
		ActiveCalls: f.NewGauge(prometheus.GaugeOpts{
			Name: "duet_active_media_sessions",
			Help: "Media sessions currently owned by the coordinator",
		}),
	}
}

type Relay struct {
	ConnectedClients prometheus.Gauge
	RelayedEvents    *prometheus.CounterVec
	DroppedEvents    *prometheus.CounterVec
	Rooms            prometheus.Gauge
	RoomJoins        *prometheus.CounterVec
}

func NewRelay(reg prometheus.Registerer) *Relay {
	f := promauto.With(reg)
	return &Relay{
		ConnectedClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "duet_relay_connected_clients",
			Help: "Clients connected to the signaling endpoint",
		}),
		RelayedEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_relay_events_total",
			Help: "Signaling events forwarded by type",
		}, []string{"type"}),
		DroppedEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_relay_dropped_events_total",
			Help: "Signaling events not forwarded by reason",
		}, []string{"reason"}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Name: "duet_relay_rooms",
			Help: "Rooms currently held by the relay",
		}),
		RoomJoins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "duet_relay_room_joins_total",
			Help: "Room join requests by result",
		}, []string{"result"}),
	}
}
