package persona

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/verdantlab/papabois/internal/config"
)

// geminiClient generates personas through Google's Gemini API.
type geminiClient struct {
	genaiClient   *genai.Client
	contentConfig *genai.GenerateContentConfig
	model         string
	timeout       time.Duration
	log           *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg config.PersonaConfig, log *slog.Logger) (*geminiClient, error) {
	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}

	logger := log.With("component", "persona_gemini", "model", cfg.Model)
	logger.Info("Gemini persona client initialized")

	return &geminiClient{
		genaiClient:   gi,
		contentConfig: contentConfig,
		model:         cfg.Model,
		timeout:       cfg.Timeout,
		log:           logger,
	}, nil
}

func (c *geminiClient) GeneratePersona(ctx context.Context, info PlantInfo) (string, error) {
	c.log.DebugContext(ctx, "Generating plant persona", "plant", info.Name)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromText(BuildPrompt(info), genai.RoleUser)}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, c.contentConfig)
	if err != nil {
		return "", fmt.Errorf("persona generation failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("persona generation blocked by safety filter: %v", resp.PromptFeedback.BlockReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("persona generation returned empty content")
	}
	return text, nil
}
