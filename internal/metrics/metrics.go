package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chyrons_frames_processed_total",
		Help: "Frames handled by the extraction loop, by status",
	}, []string{"status"})

	RecordsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chyrons_records_written_total",
		Help: "Chyron records saved, by type",
	}, []string{"type"})

	OCRDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chyrons_ocr_duration_seconds",
		Help:    "Time spent recognizing one region",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	CalibrationCandidates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chyrons_calibration_candidates",
		Help: "Candidate boxes detected across the calibration sample",
	})
)

// Frame statuses.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)
