package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cfs_uploads_total",
		Help: "Upload attempts by outcome.",
	}, []string{"outcome"})

	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cfs_upload_bytes_total",
		Help: "Bytes accepted into object storage.",
	})

	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cfs_validations_total",
		Help: "Validation runs by resulting status.",
	}, []string{"status"})

	validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cfs_validation_duration_seconds",
		Help:    "Time spent validating one file.",
		Buckets: prometheus.DefBuckets,
	})
)
