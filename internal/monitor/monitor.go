package monitor

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Metrics represents all the application metrics
type Metrics struct {
	// Extraction metrics
	ExtractionAttempts *prometheus.CounterVec
	CascadeFallbacks   *prometheus.CounterVec

	// Analysis metrics
	ClassifierCalls    *prometheus.CounterVec
	ClassifierDuration prometheus.Histogram

	// Batch metrics
	BatchDuration  prometheus.Histogram
	BatchVideos    *prometheus.CounterVec
	DroppedRecords *prometheus.CounterVec

	// Storage metrics
	StorageOperations *prometheus.CounterVec
	StorageDuration   *prometheus.HistogramVec

	// System metrics
	Goroutines  prometheus.Gauge
	MemoryUsage prometheus.Gauge
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ExtractionAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpattern_scanner_extraction_attempts_total",
				Help: "Extraction attempts by platform, method and outcome",
			},
			[]string{"platform", "method", "outcome"},
		),

		CascadeFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpattern_scanner_cascade_fallbacks_total",
				Help: "Extractions that succeeded only after at least one method failed",
			},
			[]string{"platform"},
		),

		ClassifierCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpattern_scanner_classifier_calls_total",
				Help: "Classifier API calls by outcome",
			},
			[]string{"outcome"},
		),

		ClassifierDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "darkpattern_scanner_classifier_duration_seconds",
				Help:    "Time spent per classifier call",
				Buckets: prometheus.DefBuckets,
			},
		),

		BatchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "darkpattern_scanner_batch_duration_seconds",
				Help:    "Wall time of whole batch runs",
				Buckets: []float64{1, 10, 30, 60, 120, 300, 600, 1800},
			},
		),

		BatchVideos: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpattern_scanner_batch_videos_total",
				Help: "Videos that entered a batch, by platform",
			},
			[]string{"platform"},
		),

		DroppedRecords: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpattern_scanner_dropped_records_total",
				Help: "Records dropped during normalization, by reason",
			},
			[]string{"platform", "reason"},
		),

		StorageOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "darkpattern_scanner_storage_operations_total",
				Help: "Total storage operations",
			},
			[]string{"operation", "status"},
		),

		StorageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "darkpattern_scanner_storage_duration_seconds",
				Help:    "Time spent on storage operations",
				Buckets: []float64{0.001, 0.01, 0.1, 1, 10},
			},
			[]string{"operation"},
		),

		Goroutines: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "darkpattern_scanner_goroutines",
			Help: "Number of goroutines",
		}),

		MemoryUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "darkpattern_scanner_memory_usage_bytes",
			Help: "Memory usage in bytes",
		}),
	}
}

// Monitor represents the monitoring system
type Monitor struct {
	metrics  *Metrics
	logger   zerolog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMonitor creates a new monitor instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:  NewMetrics(),
		logger:   zerolog.New(os.Stdout).With().Timestamp().Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the monitoring system
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.collectSystemMetrics()

	m.logger.Info().Msg("Monitoring system started")
}

// Stop stops the monitoring system
func (m *Monitor) Stop() {
	close(m.stopChan)
	m.wg.Wait()

	m.logger.Info().Msg("Monitoring system stopped")
}

// collectSystemMetrics collects system metrics periodically
func (m *Monitor) collectSystemMetrics() {
	defer m.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Update goroutine count
			m.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

			// Update memory usage
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			m.metrics.MemoryUsage.Set(float64(memStats.Alloc))

		case <-m.stopChan:
			return
		}
	}
}

// RecordExtractionAttempt records one extraction method attempt
func (m *Monitor) RecordExtractionAttempt(platform, method, outcome string) {
	m.metrics.ExtractionAttempts.WithLabelValues(platform, method, outcome).Inc()
}

// RecordCascadeFallback records an extraction that needed a fallback method
func (m *Monitor) RecordCascadeFallback(platform string) {
	m.metrics.CascadeFallbacks.WithLabelValues(platform).Inc()
}

// RecordClassifierCall records one classifier API call
func (m *Monitor) RecordClassifierCall(outcome string, duration time.Duration) {
	m.metrics.ClassifierCalls.WithLabelValues(outcome).Inc()
	m.metrics.ClassifierDuration.Observe(duration.Seconds())
}

// RecordBatchRun records a completed batch
func (m *Monitor) RecordBatchRun(duration time.Duration) {
	m.metrics.BatchDuration.Observe(duration.Seconds())
}

// RecordBatchVideo records a video entering a batch
func (m *Monitor) RecordBatchVideo(platform string) {
	m.metrics.BatchVideos.WithLabelValues(platform).Inc()
}

// RecordDroppedRecord records a record dropped during normalization
func (m *Monitor) RecordDroppedRecord(platform, reason string) {
	m.metrics.DroppedRecords.WithLabelValues(platform, reason).Inc()
}

// RecordStorageOperation records a storage operation
func (m *Monitor) RecordStorageOperation(operation, status string, duration time.Duration) {
	m.metrics.StorageOperations.WithLabelValues(operation, status).Inc()
	m.metrics.StorageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// GetMetrics returns all metrics
func (m *Monitor) GetMetrics() *Metrics {
	return m.metrics
}

// SetLogger replaces the default stdout logger; call before Start.
func (m *Monitor) SetLogger(logger zerolog.Logger) {
	m.logger = logger
}

// HealthCheck performs a health check
func (m *Monitor) HealthCheck() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"goroutines":   runtime.NumGoroutine(),
		"memory_usage": memStats.Alloc,
		"memory_sys":   memStats.Sys,
		"gc_cycles":    memStats.NumGC,
	}
}
