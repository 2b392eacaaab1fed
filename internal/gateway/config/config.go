package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
	// CORSOrigins limits browser origins; empty allows any.
	CORSOrigins []string       `yaml:"corsOrigins"`
	Store       StoreConfig    `yaml:"store"`
	Gemini      GeminiConfig   `yaml:"gemini"`
	Artifact    ArtifactConfig `yaml:"artifact"`
	Export      ExportConfig   `yaml:"export"`
	Session     SessionConfig  `yaml:"session"`
	Log         LogConfig      `yaml:"log"`
}

// StoreConfig selects where the project list is persisted.
// Backend is one of "file", "redis", "postgres" or "sqlite".
type StoreConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redisAddr"`
	RedisKey  string `yaml:"redisKey"`
	DSN       string `yaml:"dsn"`
}

type GeminiConfig struct {
	APIKey         string        `yaml:"apiKey"`
	PrototypeModel string        `yaml:"prototypeModel"`
	StoriesModel   string        `yaml:"storiesModel"`
	RPS            float64       `yaml:"rps"`
	Burst          int           `yaml:"burst"`
	MaxRetries     int           `yaml:"maxRetries"`
	Timeout        time.Duration `yaml:"timeout"`
	// Offline serves canned responses instead of calling Gemini.
	Offline bool `yaml:"offline"`
}

type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

type ExportConfig struct {
	ChromePath        string        `yaml:"chromePath"`
	RenderTimeout     time.Duration `yaml:"renderTimeout"`
	SnapshotCacheSize int           `yaml:"snapshotCacheSize"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// POASSIST_CONFIG, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	cfg := defaults(env)

	if path := strings.TrimSpace(os.Getenv("POASSIST_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults(env string) Config {
	return Config{
		Port: ":8081",
		Env:  env,
		Store: StoreConfig{
			Backend:  "file",
			Path:     "data/projects.json",
			RedisKey: "poassistant:projects",
		},
		Gemini: GeminiConfig{
			PrototypeModel: "gemini-2.5-pro",
			StoriesModel:   "gemini-2.5-flash",
			RPS:            1,
			Burst:          2,
			MaxRetries:     3,
			Timeout:        2 * time.Minute,
		},
		Artifact: ArtifactConfig{
			Region: "us-east-1",
			Bucket: "poassistant-exports",
			UseSSL: !isLocal(env),
		},
		Export: ExportConfig{
			RenderTimeout:     30 * time.Second,
			SnapshotCacheSize: 64,
		},
		Session: SessionConfig{TTL: 2 * time.Hour},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envReader
	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		cfg.Port = normalizePort(envPort)
	}

	if origins := splitList(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	cfg.Store.Backend = strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_BACKEND")), cfg.Store.Backend))
	cfg.Store.Path = firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_PATH")), cfg.Store.Path)
	cfg.Store.RedisAddr = firstNonEmpty(strings.TrimSpace(os.Getenv("REDIS_ADDR")), cfg.Store.RedisAddr)
	cfg.Store.RedisKey = firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_REDIS_KEY")), cfg.Store.RedisKey)
	cfg.Store.DSN = firstNonEmpty(strings.TrimSpace(os.Getenv("DATABASE_URL")), cfg.Store.DSN)

	cfg.Gemini.APIKey = firstNonEmpty(
		strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		strings.TrimSpace(os.Getenv("API_KEY")),
		cfg.Gemini.APIKey,
	)
	cfg.Gemini.PrototypeModel = firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_PROTOTYPE_MODEL")), cfg.Gemini.PrototypeModel)
	cfg.Gemini.StoriesModel = firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_STORIES_MODEL")), cfg.Gemini.StoriesModel)
	cfg.Gemini.RPS = env.floatOf("GEMINI_RPS", cfg.Gemini.RPS)
	cfg.Gemini.Burst = env.intOf("GEMINI_BURST", cfg.Gemini.Burst)
	cfg.Gemini.MaxRetries = env.intOf("GEMINI_MAX_RETRIES", cfg.Gemini.MaxRetries)
	cfg.Gemini.Timeout = env.durationOf("GEMINI_TIMEOUT", cfg.Gemini.Timeout)
	cfg.Gemini.Offline = env.boolOf("GEMINI_OFFLINE", cfg.Gemini.Offline)

	loadArtifactEnv(cfg, &env)

	cfg.Export.ChromePath = firstNonEmpty(strings.TrimSpace(os.Getenv("CHROME_PATH")), cfg.Export.ChromePath)
	cfg.Export.RenderTimeout = env.durationOf("EXPORT_RENDER_TIMEOUT", cfg.Export.RenderTimeout)
	cfg.Export.SnapshotCacheSize = env.intOf("EXPORT_SNAPSHOT_CACHE_SIZE", cfg.Export.SnapshotCacheSize)

	cfg.Session.TTL = env.durationOf("SESSION_TTL", cfg.Session.TTL)

	cfg.Log.Level = firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), cfg.Log.Level)
	cfg.Log.Format = firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), cfg.Log.Format)
	return env.err()
}

func loadArtifactEnv(cfg *Config, env *envReader) {
	a := &cfg.Artifact
	a.Endpoint = firstNonEmpty(resolveArtifactEndpoint(cfg.Env), a.Endpoint)
	a.Enabled = env.boolOf("ARTIFACT_ENABLED", a.Enabled || a.Endpoint != "")
	a.Region = firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), a.Region)
	a.AccessKey = firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")), a.AccessKey)
	a.SecretKey = firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD")), a.SecretKey)
	a.Bucket = firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), a.Bucket)
	if !isLocal(cfg.Env) {
		a.UseSSL = env.boolOf("ARTIFACT_S3_USE_SSL", a.UseSSL)
	}
}

func resolveArtifactEndpoint(env string) string {
	if isLocal(env) {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file":
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("config: store.path is required for the file backend")
		}
	case "redis":
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return fmt.Errorf("config: REDIS_ADDR is required for the redis backend")
		}
	case "postgres", "sqlite":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if !isLocal(c.Env) && !c.Gemini.Offline && strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("config: GEMINI_API_KEY is required in %s; set GEMINI_OFFLINE=true to serve canned output", c.Env)
	}
	return nil
}

// UseOffline reports whether generation runs against canned responses. Outside
// the local env Validate only lets this happen when Gemini.Offline is set.
func (c *Config) UseOffline() bool {
	return c.Gemini.Offline || strings.TrimSpace(c.Gemini.APIKey) == ""
}

// IsLocal reports whether the config targets a developer machine.
func (c *Config) IsLocal() bool { return isLocal(c.Env) }

func isLocal(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "local")
}

func normalizePort(p string) string {
	if strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

// NormalizePort prefixes a bare port number with ":".
func NormalizePort(p string) string { return normalizePort(strings.TrimSpace(p)) }

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envReader parses typed environment values and collects the malformed ones.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw, raw != ""
}

func (r *envReader) fail(key, raw string, err error) {
	r.errs = append(r.errs, fmt.Errorf("config: invalid %s=%q: %w", key, raw, err))
}

func (r *envReader) err() error { return errors.Join(r.errs...) }

func (r *envReader) intOf(key string, def int) int {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *envReader) floatOf(key string, def float64) float64 {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *envReader) boolOf(key string, def bool) bool {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *envReader) durationOf(key string, def time.Duration) time.Duration {
	raw, ok := r.lookup(key)
	if !ok {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
