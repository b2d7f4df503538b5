package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/verdantlab/papabois/internal/metrics"
)

// NewWhoisPlantHandler returns a handler for the /whois_plant command. It
// transitions the user to the awaiting-photo state and prompts for a photo.
func NewWhoisPlantHandler(deps HandlerDeps) bot.HandlerFunc {
	return whoisPlantHandler{deps}.Handle
}

type whoisPlantHandler struct {
	deps HandlerDeps
}

func (h whoisPlantHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "whois_plant")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Whois handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	userID := update.Message.From.ID
	log.InfoContext(ctx, "Handling /whois_plant command", "chat_id", update.Message.Chat.ID, "user_id", userID)
	metrics.CommandsTotal.WithLabelValues("whois_plant").Inc()

	h.deps.States.SetAwaitingPhoto(userID)
	metrics.AwaitingUsers.Set(float64(h.deps.States.Len()))

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   h.deps.Config.Messages.AskPhoto,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send photo prompt", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
