package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	m := New()
	m.ObserveGeneration("prototype", time.Now(), nil)
	m.ObserveGeneration("prototype", time.Now(), errors.New("x"))
	m.ObserveGeneration("stories", time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("prototype", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("prototype", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.GenerationDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("x", time.Now(), nil)
	m.ObserveStoreMutation("add", nil)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveStoreMutation("add", nil)
	m.SessionsActive.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `poassistant_project_store_mutations_total{op="add",outcome="ok"} 1`)
	assert.Contains(t, body, "poassistant_sessions_active 3")
}
