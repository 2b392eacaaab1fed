package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/config"
	"poassistant/internal/gateway/export"
	"poassistant/internal/gateway/handler"
	"poassistant/internal/gateway/metrics"
	"poassistant/internal/gateway/orchestrator"
	"poassistant/internal/gateway/projectstore"
	"poassistant/internal/gateway/reconcile"
	"poassistant/internal/gateway/server"
	"poassistant/internal/gateway/session"
	"poassistant/internal/generation"
)

type App struct {
	server  *server.Server
	service *handler.Service
	store   *projectstore.Store
	gateway *generation.GeminiGateway
	log     logrus.FieldLogger
}

func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	m := metrics.New()

	store, err := OpenProjectStore(ctx, cfg, log, m.ObserveStoreMutation)
	if err != nil {
		return nil, err
	}
	gateway, err := NewGateway(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	artifacts, err := NewArtifactStore(cfg, log)
	if err != nil {
		_ = store.Close()
		_ = gateway.Close()
		return nil, err
	}
	exporter, err := NewExporter(cfg)
	if err != nil {
		_ = store.Close()
		_ = gateway.Close()
		return nil, fmt.Errorf("failed to set up exports: %w", err)
	}

	svc := handler.NewService(handler.Deps{
		Sessions:     session.NewRegistry(cfg.Session.TTL, m.SessionsActive),
		Engine:       reconcile.New(store, reconcile.WithLogger(log)),
		Orchestrator: orchestrator.New(gateway, log, m),
		Projects:     store,
		Exporter:     exporter,
		Publisher:    export.NewPublisher(artifacts),
		Streams:      m.WebSocketsActive,
		Logger:       log,
	})

	// Routing & Server
	mux := server.NewMux(svc, m.Handler(), cfg.CORSOrigins, log)
	return &App{
		server:  server.New(cfg.Port, mux, log),
		service: svc,
		store:   store,
		gateway: gateway,
		log:     log,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops accepting requests, lets running generations settle, then
// releases the store and the model clients.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if werr := a.service.Wait(ctx); werr != nil {
		a.log.WithError(werr).Warn("generations still running at shutdown")
	}
	return errors.Join(err, a.store.Close(), a.gateway.Close())
}
