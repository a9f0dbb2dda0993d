package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// connectionsGauge tracks live SSE subscriptions across all identities
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mentorhub_sse_connections",
		Help: "Live server-sent-event subscriptions",
	})

	// eventsTotal counts push attempts by event type and outcome (queued, dropped, offline)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_sse_events_total",
		Help: "Push events by type and delivery outcome",
	}, []string{"type", "result"})
)
