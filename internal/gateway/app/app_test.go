package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poassistant/internal/gateway/config"
	artifactrepo "poassistant/internal/gateway/repository/artifact"
)

func offlineConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:    ":0",
		Store:   config.StoreConfig{Backend: "file", Path: filepath.Join(t.TempDir(), "projects.json")},
		Gemini:  config.GeminiConfig{Offline: true},
		Export:  config.ExportConfig{RenderTimeout: time.Second, SnapshotCacheSize: 2},
		Session: config.SessionConfig{TTL: time.Minute},
	}
}

func TestNewOffline(t *testing.T) {
	log, _ := test.NewNullLogger()
	a, err := New(context.Background(), offlineConfig(t), log)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, a.Shutdown(ctx))
}

func TestNewGatewayRequiresKeyOutsideLocal(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := offlineConfig(t)
	cfg.Gemini.Offline = false
	cfg.Env = "production"

	_, err := NewGateway(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "no Gemini API key")

	cfg.Env = "local"
	gw, err := NewGateway(context.Background(), cfg, log)
	require.NoError(t, err)
	assert.NotNil(t, gw)

	cfg.Env = "production"
	cfg.Gemini.Offline = true
	gw, err = NewGateway(context.Background(), cfg, log)
	require.NoError(t, err)
	assert.NotNil(t, gw)
}

func TestNewArtifactStoreFallsBackToMemory(t *testing.T) {
	log, _ := test.NewNullLogger()
	store, err := NewArtifactStore(offlineConfig(t), log)
	require.NoError(t, err)
	assert.IsType(t, &artifactrepo.MemoryStore{}, store)
}

func TestNewArtifactStoreRejectsIncompleteS3(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := offlineConfig(t)
	cfg.Artifact.Enabled = true
	_, err := NewArtifactStore(cfg, log)
	assert.Error(t, err)
}

func TestOpenProjectStoreUnknownBackend(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := offlineConfig(t)
	cfg.Store.Backend = "etcd"
	_, err := OpenProjectStore(context.Background(), cfg, log, nil)
	assert.Error(t, err)
}
