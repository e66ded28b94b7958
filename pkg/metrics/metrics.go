// Package metrics provides Prometheus metrics for the fern pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks pipeline runs by final status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"pipeline", "status"},
	)

	// RunDuration tracks pipeline run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"pipeline"},
	)

	// RecordsTotal tracks processed staging rows by entity and outcome
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Total number of staging records processed by entity and outcome",
		},
		[]string{"pipeline", "entity", "status"},
	)

	// ExtractedBatchSize tracks how many rows each extraction returned
	ExtractedBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "extractor",
			Name:      "batch_rows",
			Help:      "Rows returned per extraction",
			Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"entity"},
	)

	// ExtractionErrors tracks failed extractions
	ExtractionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "extractor",
			Name:      "errors_total",
			Help:      "Total number of failed extractions",
		},
		[]string{"entity"},
	)

	// Watermark is the current watermark as unix seconds
	Watermark = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "watermark_timestamp_seconds",
			Help:      "Current extraction watermark as a unix timestamp",
		},
		[]string{"pipeline"},
	)

	// KafkaMessagesPublished tracks run events published to Kafka
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

func RecordRun(pipeline, status string, duration time.Duration) {
	RunsTotal.WithLabelValues(pipeline, status).Inc()
	RunDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

func RecordRecords(pipeline, entity, status string, n int) {
	if n <= 0 {
		return
	}
	RecordsTotal.WithLabelValues(pipeline, entity, status).Add(float64(n))
}

func RecordExtraction(entity string, rows int, err error) {
	if err != nil {
		ExtractionErrors.WithLabelValues(entity).Inc()
		return
	}
	ExtractedBatchSize.WithLabelValues(entity).Observe(float64(rows))
}

func SetWatermark(pipeline string, wm time.Time) {
	Watermark.WithLabelValues(pipeline).Set(float64(wm.Unix()))
}

func RecordKafkaPublish(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
