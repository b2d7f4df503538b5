// Package persona generates the "plant persona" narrative: a short message
// voiced as the identified plant, produced by a generative-text service.
// Two providers are supported: an OpenAI-compatible chat-completions API
// (OpenRouter) and Google's Gemini API.
package persona

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verdantlab/papabois/internal/config"
)

// Fixed degradation texts. Persona generation is best-effort: callers
// substitute one of these instead of failing the overall reply.
const (
	PlaceholderQuietSpirits = "The spirits are quiet at the moment... 🌿"
	PlaceholderVeiledWisdom = "Nature's wisdom is temporarily veiled... 🍃"
)

const systemInstruction = "You are a mystical plant spirit, sharing ancient wisdom about your nature and properties."

// PlantInfo is everything known about the top identification candidate,
// used to condition the generated narrative.
type PlantInfo struct {
	Name              string
	CommonNames       []string
	Description       string
	HealingProperties string
}

// Client generates a persona narrative for an identified plant.
type Client interface {
	GeneratePersona(ctx context.Context, info PlantInfo) (string, error)
}

// NewClient creates the persona provider selected by configuration.
func NewClient(ctx context.Context, cfg config.PersonaConfig, log *slog.Logger) (Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("persona API key is required")
	}

	switch cfg.Provider {
	case "openrouter":
		return newOpenRouterClient(cfg, log), nil
	case "gemini":
		return newGeminiClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown persona provider: %q", cfg.Provider)
	}
}
