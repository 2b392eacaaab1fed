package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/config"
	"poassistant/internal/gateway/projectstore"
	artifactrepo "poassistant/internal/gateway/repository/artifact"
)

// OpenProjectStore opens the configured backend and loads the project list.
// observer may be nil.
func OpenProjectStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, observer projectstore.Observer) (*projectstore.Store, error) {
	backend, err := projectstore.NewBackend(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s project store: %w", cfg.Store.Backend, err)
	}
	opts := []projectstore.Option{projectstore.WithLogger(log)}
	if observer != nil {
		opts = append(opts, projectstore.WithObserver(observer))
	}
	store, err := projectstore.Open(ctx, backend, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{"backend": cfg.Store.Backend, "projects": store.Len()}).Info("project store ready")
	return store, nil
}

// NewArtifactStore returns the S3/minio store when enabled, otherwise an
// in-memory one.
func NewArtifactStore(cfg *config.Config, log logrus.FieldLogger) (artifactrepo.Store, error) {
	if !cfg.Artifact.Enabled {
		log.Info("artifact store: in-memory")
		return artifactrepo.NewMemoryStore(), nil
	}
	s3Cfg := artifactrepo.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	}
	store, err := artifactrepo.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
	}
	log.WithFields(logrus.Fields{"bucket": s3Cfg.Bucket, "endpoint": s3Cfg.Endpoint}).Info("artifact store: s3")
	return store, nil
}
