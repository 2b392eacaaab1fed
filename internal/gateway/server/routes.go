package server

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/handler"
	"poassistant/internal/gateway/middleware"
)

// NewMux mounts the assistant service and the metrics endpoint behind CORS and
// request logging. metrics may be nil.
func NewMux(svc *handler.Service, metrics http.Handler, corsOrigins []string, log logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()
	svc.Mount(mux)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return middleware.CORS(corsOrigins)(middleware.Logging(log)(mux))
}
