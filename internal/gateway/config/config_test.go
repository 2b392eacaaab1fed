package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	// godotenv.Load reads ./.env; run from an empty directory.
	t.Chdir(t.TempDir())
	for _, k := range []string{
		"APP_ENV", "PORT", "POASSIST_CONFIG", "STORE_BACKEND", "STORE_PATH", "REDIS_ADDR",
		"DATABASE_URL", "GEMINI_API_KEY", "API_KEY", "GEMINI_RPS", "GEMINI_TIMEOUT",
		"GEMINI_OFFLINE", "ARTIFACT_MINIO_ENDPOINT", "ARTIFACT_S3_ENDPOINT", "ARTIFACT_ENABLED",
		"SESSION_TTL", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "GEMINI_BURST", "GEMINI_MAX_RETRIES",
		"EXPORT_RENDER_TIMEOUT", "EXPORT_SNAPSHOT_CACHE_SIZE", "ARTIFACT_S3_USE_SSL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.PrototypeModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.StoriesModel)
	assert.False(t, cfg.Artifact.Enabled)
	assert.True(t, cfg.UseOffline())
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GEMINI_TIMEOUT", "15s")
	t.Setenv("GEMINI_RPS", "2.5")
	t.Setenv("ARTIFACT_MINIO_ENDPOINT", "minio:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 15*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 2.5, cfg.Gemini.RPS)
	assert.False(t, cfg.UseOffline())
	assert.True(t, cfg.Artifact.Enabled)
	assert.False(t, cfg.Artifact.UseSSL)
}

func TestLoadYAMLFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "poassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: ":7000"
store:
  backend: sqlite
  dsn: "file:projects.db"
session:
  ttl: 10m
log:
  level: debug
`), 0o644))
	t.Setenv("POASSIST_CONFIG", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "file:projects.db", cfg.Store.DSN)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsIncompleteStore(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_BACKEND", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_BACKEND", "mongo")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestNormalizePort(t *testing.T) {
	assert.Equal(t, ":80", NormalizePort("80"))
	assert.Equal(t, ":80", NormalizePort(" :80 "))
}

func TestCORSOriginsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("CORS_ORIGINS", " http://localhost:5173, ,https://po.example ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://po.example"}, cfg.CORSOrigins)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_RPS", "abc")
	t.Setenv("SESSION_TTL", "5")
	t.Setenv("GEMINI_OFFLINE", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, `GEMINI_RPS="abc"`)
	assert.ErrorContains(t, err, `SESSION_TTL="5"`)
	assert.ErrorContains(t, err, `GEMINI_OFFLINE="maybe"`)
}

func TestOfflineMustBeExplicitOutsideLocal(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.ErrorContains(t, err, "GEMINI_API_KEY is required")

	t.Setenv("GEMINI_OFFLINE", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UseOffline())

	t.Setenv("GEMINI_OFFLINE", "")
	t.Setenv("GEMINI_API_KEY", "k")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.UseOffline())
}
