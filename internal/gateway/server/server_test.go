package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poassistant/internal/gateway/handler"
	"poassistant/internal/gateway/metrics"
	"poassistant/internal/gateway/session"
)

func TestMuxServesHealthAndMetrics(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := metrics.New()
	svc := handler.NewService(handler.Deps{
		Sessions: session.NewRegistry(time.Hour, m.SessionsActive),
		Logger:   log,
	})
	srv := httptest.NewServer(NewMux(svc, m.Handler(), nil, log))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
