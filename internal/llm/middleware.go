package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	llmclient "poassistant/internal/llmClient"
)

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the middleware is a pass-through.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, req)
}

// WithLogging logs request size, latency and errors.
func WithLogging(logger logrus.FieldLogger) Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  logrus.FieldLogger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	fields := logrus.Fields{
		"phase":  PhaseFrom(ctx),
		"client": l.next.Name(),
		"bytes":  len(req.Prompt),
		"media":  len(req.Media),
	}
	l.log.WithFields(fields).Debug("LLM request")
	start := time.Now()
	out, err := l.next.GenerateText(ctx, req)
	fields["elapsed_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		l.log.WithFields(fields).WithError(err).Warn("LLM error")
		return out, err
	}
	fields["response_bytes"] = len(out)
	l.log.WithFields(fields).Info("LLM response")
	return out, nil
}
