package mentorship

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// transitionsTotal counts committed relationship transitions by target status
var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mentorhub_mentorship_transitions_total",
	Help: "Committed mentorship transitions by resulting status",
}, []string{"status"})
