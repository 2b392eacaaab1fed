package generation

import (
	"context"
	"errors"
	"strings"

	"poassistant/internal/llm"
	llmclient "poassistant/internal/llmClient"
	"poassistant/internal/util/jsonutil"
)

var errEmptyMarkup = errors.New("generation: empty markup")

// GeminiGateway implements Gateway over two model clients: markup goes to the
// high tier, structured stories to the low tier.
type GeminiGateway struct {
	markup  llmclient.LLMClient
	stories llmclient.LLMClient
}

// NewGeminiGateway builds a gateway. When stories is nil the markup client is used for both.
func NewGeminiGateway(markup, stories llmclient.LLMClient) *GeminiGateway {
	if stories == nil {
		stories = markup
	}
	return &GeminiGateway{markup: markup, stories: stories}
}

func (g *GeminiGateway) GeneratePrototype(ctx context.Context, requirements string, image *Image) (string, error) {
	ctx = llm.WithPhase(ctx, string(OpPrototype))
	out, err := g.markup.GenerateText(ctx, llmclient.Request{
		Prompt: prototypePrompt(requirements, image != nil),
		Media:  media(image),
	})
	return markupResult(OpPrototype, out, err)
}

func (g *GeminiGateway) GenerateStories(ctx context.Context, requirements string, image *Image) (string, error) {
	ctx = llm.WithPhase(ctx, string(OpStories))
	out, err := g.stories.GenerateText(ctx, llmclient.Request{
		Prompt: storiesPrompt(requirements, image != nil),
		Media:  media(image),
		JSON:   true,
		Schema: EpicsSchema,
	})
	if err != nil {
		return "", wrap(OpStories, err)
	}
	return out, nil
}

func (g *GeminiGateway) Refine(ctx context.Context, currentMarkup, instruction string) (string, error) {
	ctx = llm.WithPhase(ctx, string(OpRefine))
	out, err := g.markup.GenerateText(ctx, llmclient.Request{
		Prompt: refinePrompt(currentMarkup, instruction),
	})
	return markupResult(OpRefine, out, err)
}

func (g *GeminiGateway) GenerateVariant(ctx context.Context, requirements, previousMarkup string, image *Image) (string, error) {
	ctx = llm.WithPhase(ctx, string(OpVariant))
	out, err := g.markup.GenerateText(ctx, llmclient.Request{
		Prompt: variantPrompt(requirements, previousMarkup, image != nil),
		Media:  media(image),
	})
	return markupResult(OpVariant, out, err)
}

// Close releases both clients.
func (g *GeminiGateway) Close() error {
	err := g.markup.Close()
	if g.stories != g.markup {
		err = errors.Join(err, g.stories.Close())
	}
	return err
}

func media(image *Image) []llmclient.Media {
	if image == nil || len(image.Data) == 0 {
		return nil
	}
	return []llmclient.Media{{Data: image.Data, MIMEType: image.MIMEType}}
}

func markupResult(op Op, out string, err error) (string, error) {
	if err != nil {
		return "", wrap(op, err)
	}
	markup := CleanMarkup(out)
	if markup == "" {
		return "", wrap(op, errEmptyMarkup)
	}
	return markup, nil
}

// CleanMarkup strips a surrounding ```html fence that models add despite instructions.
func CleanMarkup(out string) string {
	return strings.TrimSpace(jsonutil.StripCodeFence(out))
}
