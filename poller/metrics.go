package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pollAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gevulot",
	Name:      "poll_attempts_total",
	Help:      "Result tree queries issued while waiting for jobs, by result.",
}, []string{"result"})
