package prover

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gevulot",
		Name:      "jobs_submitted_total",
		Help:      "Jobs accepted by the node.",
	})

	jobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gevulot",
		Name:      "job_outcomes_total",
		Help:      "Finished job lifecycles by outcome.",
	}, []string{"outcome"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gevulot",
		Name:      "job_duration_seconds",
		Help:      "Time from building a job to downloading its results.",
		Buckets:   []float64{60, 300, 600, 900, 1200, 1800, 3600},
	})

	downloadedFiles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gevulot",
		Name:      "downloaded_files_total",
		Help:      "Result files downloaded from the network.",
	})
)
