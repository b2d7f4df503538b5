package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/verdantlab/papabois/internal/metrics"
)

const myPlantsLimit = 10

// NewMyPlantsHandler returns a handler for the /my_plants command, listing
// the caller's most recent identifications from the history store.
func NewMyPlantsHandler(deps HandlerDeps) bot.HandlerFunc {
	return myPlantsHandler{deps}.Handle
}

type myPlantsHandler struct {
	deps HandlerDeps
}

func (h myPlantsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "my_plants")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "My plants handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	log.InfoContext(ctx, "Handling /my_plants command", "chat_id", chatID, "user_id", userID)
	metrics.CommandsTotal.WithLabelValues("my_plants").Inc()

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	records, err := h.deps.Store.GetRecentIdentifications(dbCtx, userID, myPlantsLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load identification history", "error", err, "user_id", userID)
		h.sendText(ctx, b, chatID, h.deps.Config.Messages.GeneralError, "")
		return
	}

	if len(records) == 0 {
		h.sendText(ctx, b, chatID, h.deps.Config.Messages.HistoryEmpty, "")
		return
	}

	var sb strings.Builder
	sb.WriteString(h.deps.Config.Messages.HistoryHeader)
	for i, rec := range records {
		fmt.Fprintf(&sb, "%d. *%s* (%.1f%%) - %s\n",
			i+1, rec.SpeciesName, rec.Confidence*100, rec.CreatedAt.Format(time.DateOnly))
	}

	h.sendText(ctx, b, chatID, sb.String(), models.ParseModeMarkdown)
}

func (h myPlantsHandler) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string, parseMode models.ParseMode) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send my_plants reply", "error", err, "chat_id", chatID)
	}
}
