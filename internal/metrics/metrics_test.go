package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidops-platform/api/internal/importer"
)

func TestObserveImport(t *testing.T) {
	m := New()

	m.ObserveImport(importer.KindActiveBids, importer.Result{
		Count:        5,
		NewCount:     3,
		UpdatedCount: 2,
		FailedCount:  1,
		Errors:       []string{"Row 6: row is not a record", "Row 2: posts"},
	}, 120*time.Millisecond)
	m.ObserveImport(importer.KindActiveBids, importer.Result{NewCount: 1}, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.importsTotal.WithLabelValues("active_bids")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("active_bids", "new")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("active_bids", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("active_bids", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("active_bids")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.importLatency))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveExport(importer.KindAvailableJobs)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bidops_exports_total{kind="available_jobs"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
