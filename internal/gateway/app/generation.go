package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"poassistant/internal/gateway/config"
	"poassistant/internal/gateway/export"
	"poassistant/internal/generation"
	"poassistant/internal/llm"
	llmclient "poassistant/internal/llmClient"
)

const retryBaseDelay = time.Second

// NewGateway builds the Gemini-backed generation gateway. The offline one is
// used when Gemini.Offline is set, or in the local env when no API key is
// configured.
func NewGateway(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*generation.GeminiGateway, error) {
	if cfg.UseOffline() {
		if !cfg.Gemini.Offline && !cfg.IsLocal() {
			return nil, fmt.Errorf("generation: no Gemini API key configured for env %q", cfg.Env)
		}
		log.Warn("generation: serving offline responses")
		return generation.NewOfflineGateway(), nil
	}
	markup, err := newClient(ctx, cfg, cfg.Gemini.PrototypeModel, log)
	if err != nil {
		return nil, err
	}
	stories, err := newClient(ctx, cfg, cfg.Gemini.StoriesModel, log)
	if err != nil {
		_ = markup.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"prototype_model": cfg.Gemini.PrototypeModel,
		"stories_model":   cfg.Gemini.StoriesModel,
	}).Info("generation: gemini")
	return generation.NewGeminiGateway(markup, stories), nil
}

func newClient(ctx context.Context, cfg *config.Config, model string, log logrus.FieldLogger) (llmclient.LLMClient, error) {
	cli, err := llmclient.NewGeminiClient(ctx, cfg.Gemini.APIKey, model, cfg.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client for %s: %w", model, err)
	}
	return llm.Wrap(cli,
		llm.WithLogging(log),
		llm.Retry(cfg.Gemini.MaxRetries, retryBaseDelay),
		llm.RateLimit(cfg.Gemini.RPS, cfg.Gemini.Burst),
	), nil
}

// NewExporter wires PNG snapshots through headless Chrome.
func NewExporter(cfg *config.Config) (*export.Exporter, error) {
	snaps, err := export.NewSnapshotter(
		export.NewChromeRenderer(cfg.Export.ChromePath, cfg.Export.RenderTimeout),
		cfg.Export.SnapshotCacheSize,
	)
	if err != nil {
		return nil, err
	}
	return &export.Exporter{Snapshots: snaps}, nil
}
