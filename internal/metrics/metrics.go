package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrExport is returned when the registry cannot be written out.
var ErrExport = errors.New("metrics export failed")

// Recorder receives query and load events.
type Recorder interface {
	// QueryCompleted records one finished query and the rows it scanned.
	QueryCompleted(query string, rowsScanned int, elapsed time.Duration)
	// RowsLoaded records rows written by the loader.
	RowsLoaded(n int)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) QueryCompleted(string, int, time.Duration) {}
func (Nop) RowsLoaded(int)                            {}

// Manager is a Recorder backed by a private Prometheus registry.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	rowsScanned   *prometheus.CounterVec
	rowsLoaded    prometheus.Counter
	queryDuration *prometheus.HistogramVec
}

var _ Recorder = (*Manager)(nil)

// NewManager creates a Manager with its own registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scrabbledb",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	factory := promauto.With(m.registry)
	m.rowsScanned = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rows_scanned_total",
		Help:      "Rows read from the store by each query.",
	}, []string{"query"})
	m.rowsLoaded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rows_loaded_total",
		Help:      "Game rows written by the loader.",
	})
	m.queryDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "query_duration_seconds",
		Help:      "Wall time of each query, scan included.",
		Buckets:   m.histogramBuckets,
	}, []string{"query"})
	return m
}

func (m *Manager) QueryCompleted(query string, rowsScanned int, elapsed time.Duration) {
	m.rowsScanned.WithLabelValues(query).Add(float64(rowsScanned))
	m.queryDuration.WithLabelValues(query).Observe(elapsed.Seconds())
}

func (m *Manager) RowsLoaded(n int) {
	m.rowsLoaded.Add(float64(n))
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every metric to path in the Prometheus text format.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write %s: %v: %w", path, err, ErrExport)
	}
	return nil
}
