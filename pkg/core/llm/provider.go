package llm

import (
	"context"
)

// Provider is the interface for all LLM providers.
// Implementations return the model's text unmodified; callers decide how to treat it.
type Provider interface {
	// Name is the registry key of the provider (e.g. "gemini").
	Name() string
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by the providers in this package.
const (
	OptionModel       = "model"
	OptionTemperature = "temperature"
	OptionMaxTokens   = "max_tokens"
	OptionAPIKey      = "api_key"
)

func stringOption(options map[string]interface{}, key, fallback string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return fallback
}

func floatOption(options map[string]interface{}, key string, fallback float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return fallback
}

func intOption(options map[string]interface{}, key string, fallback int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}
