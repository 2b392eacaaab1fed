package generation

import (
	"context"
	"fmt"
	"html"
	"strings"

	"poassistant/internal/llm"
	llmclient "poassistant/internal/llmClient"
)

// NewOfflineGateway returns a gateway backed by canned responses. It lets the server
// and CLI run without a Gemini key.
func NewOfflineGateway() *GeminiGateway {
	markup := llm.NewFakeClient("offline-markup", func(ctx context.Context, req llmclient.Request) (string, error) {
		title := "Prototype"
		switch llm.PhaseFrom(ctx) {
		case string(OpRefine):
			title = "Refined prototype"
		case string(OpVariant):
			title = "Prototype variant"
		}
		return fmt.Sprintf(offlineMarkup, html.EscapeString(title), html.EscapeString(firstQuoted(req.Prompt))), nil
	})
	stories := llm.NewFakeClient("offline-stories", func(context.Context, llmclient.Request) (string, error) {
		return offlineStories, nil
	})
	return NewGeminiGateway(markup, stories)
}

// firstQuoted pulls the quoted requirements line out of a prompt.
func firstQuoted(prompt string) string {
	i := strings.IndexByte(prompt, '"')
	if i < 0 {
		return ""
	}
	j := strings.IndexByte(prompt[i+1:], '\n')
	if j < 0 {
		return strings.Trim(prompt[i:], `"`)
	}
	return strings.Trim(prompt[i:i+1+j], `"`)
}

const offlineMarkup = `<div class="min-h-screen bg-gray-50 p-8">
  <h1 class="text-2xl font-bold text-gray-900">%s</h1>
  <p class="mt-2 text-gray-600">%s</p>
</div>`

const offlineStories = `[
  {
    "epicTitle": "Core experience",
    "stories": [
      {
        "title": "View the main screen",
        "userStory": "As a user, I want to see the main screen so that I can start working.",
        "acceptanceCriteria": ["The main screen loads", "The title is visible"],
        "bddScenarios": [
          {"scenario": "Open the app", "given": "I am on the start page", "when": "I open the app", "then": "I see the main screen"}
        ]
      }
    ]
  }
]`
