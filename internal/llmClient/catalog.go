package llmclient

import (
	"strings"

	genai "google.golang.org/genai"
)

// Schema is the response schema type understood by the Gemini backend.
type Schema = genai.Schema

type ModelLevel string

const (
	// ModelLevelLow is used for structured output where latency matters more than depth.
	ModelLevelLow ModelLevel = "low"
	// ModelLevelHigh is used for markup generation.
	ModelLevelHigh ModelLevel = "high"
)

var defaultGeminiModels = map[ModelLevel]string{
	ModelLevelLow:  "gemini-2.5-flash",
	ModelLevelHigh: "gemini-2.5-pro",
}

// DefaultGeminiModel returns the catalog model for a level, falling back to the high tier.
func DefaultGeminiModel(level ModelLevel) string {
	if m, ok := defaultGeminiModels[ModelLevel(strings.ToLower(strings.TrimSpace(string(level))))]; ok {
		return m
	}
	return defaultGeminiModels[ModelLevelHigh]
}
