package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Records(t *testing.T) {
	m := NewManager()

	m.QueryCompleted("query1", 4, 20*time.Millisecond)
	m.QueryCompleted("query1", 2, 10*time.Millisecond)
	m.QueryCompleted("query3", 7, time.Millisecond)
	m.RowsLoaded(500)
	m.RowsLoaded(12)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.rowsScanned.WithLabelValues("query1")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rowsScanned.WithLabelValues("query3")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.rowsLoaded))
	assert.Equal(t, 2, testutil.CollectAndCount(m.queryDuration))
}

func TestManager_Options(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("test"),
		WithRegistry(reg),
		WithHistogramBuckets([]float64{0.1, 1}),
	)
	m.RowsLoaded(1)

	assert.Same(t, reg, m.Registry())
	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_rows_loaded_total")
}

func TestManager_WriteTextfile(t *testing.T) {
	m := NewManager()
	m.QueryCompleted("query2", 3, time.Millisecond)

	path := filepath.Join(t.TempDir(), "scrabbledb.prom")
	require.NoError(t, m.WriteTextfile(path))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), `scrabbledb_rows_scanned_total{query="query2"} 3`)
	assert.Contains(t, string(out), "scrabbledb_query_duration_seconds_count")

	err = m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.ErrorIs(t, err, ErrExport)
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.QueryCompleted("query1", 1, time.Second)
	r.RowsLoaded(1)
}
