package persona

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/verdantlab/papabois/internal/config"
)

// openRouterClient talks to an OpenAI-compatible chat-completions API.
// With the default base URL this is OpenRouter.
type openRouterClient struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	log         *slog.Logger
}

func newOpenRouterClient(cfg config.PersonaConfig, log *slog.Logger) *openRouterClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHeader("X-Title", "Plant Spirit Bot"),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger := log.With("component", "persona_openrouter", "model", cfg.Model)
	logger.Info("OpenRouter persona client initialized")

	return &openRouterClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: float64(cfg.Temperature),
		timeout:     cfg.Timeout,
		log:         logger,
	}
}

func (c *openRouterClient) GeneratePersona(ctx context.Context, info PlantInfo) (string, error) {
	c.log.DebugContext(ctx, "Generating plant persona", "plant", info.Name)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(BuildPrompt(info)),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("persona chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("persona chat completion returned no content")
	}

	return resp.Choices[0].Message.Content, nil
}
