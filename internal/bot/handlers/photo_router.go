package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/verdantlab/papabois/internal/database"
	"github.com/verdantlab/papabois/internal/format"
	"github.com/verdantlab/papabois/internal/identify"
	"github.com/verdantlab/papabois/internal/metrics"
)

// NewPhotoRouter returns the bot's default handler. Every non-command update
// lands here: it is dropped unless the sender is in the awaiting-photo state,
// in which case a photo triggers the identification flow and anything else
// re-prompts for a photo without changing state.
func NewPhotoRouter(deps HandlerDeps) bot.HandlerFunc {
	return photoRouter{deps: deps, download: DownloadPhotoToFile}.Handle
}

type downloadFunc func(ctx context.Context, b *bot.Bot, token, fileID, destPath string) error

type photoRouter struct {
	deps     HandlerDeps
	download downloadFunc
}

func (h photoRouter) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "photo_router")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !h.deps.States.IsAwaitingPhoto(userID) {
		log.DebugContext(ctx, "Ignoring message from user not awaiting photo",
			"chat_id", chatID, "user_id", userID)
		return
	}

	if len(update.Message.Photo) == 0 {
		log.InfoContext(ctx, "Awaiting-photo user sent non-photo message",
			"chat_id", chatID, "user_id", userID)
		h.sendText(ctx, b, chatID, h.deps.Config.Messages.NotPhoto, "")
		return
	}

	h.processPhoto(ctx, b, update)
}

func (h photoRouter) processPhoto(ctx context.Context, b *bot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	correlationID := uuid.NewString()
	log := h.deps.Logger.With("handler", "photo_router", "correlation_id", correlationID,
		"chat_id", chatID, "user_id", userID)

	tempPath := tempPhotoPath(userID, correlationID)

	// Whatever happens below, the user leaves the awaiting-photo state and
	// the downloaded file is removed before this returns.
	defer func() {
		h.deps.States.Clear(userID)
		metrics.AwaitingUsers.Set(float64(h.deps.States.Len()))
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			log.WarnContext(ctx, "Failed to remove temp photo file", "path", tempPath, "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Panic while processing photo", "panic", r)
			h.sendText(ctx, b, chatID, h.deps.Config.Messages.GeneralError, "")
		}
	}()

	log.InfoContext(ctx, "Processing plant photo")
	start := time.Now()

	processingMsg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   h.deps.Config.Messages.Processing,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send processing message", "error", err)
		return
	}

	best, ok := pickBestPhoto(update.Message.Photo)
	if !ok {
		h.editText(ctx, b, chatID, processingMsg.ID, h.deps.Config.Messages.GeneralError, "")
		return
	}

	if err := h.download(ctx, b, h.deps.Config.Telegram.Token, best.FileID, tempPath); err != nil {
		log.ErrorContext(ctx, "Failed to download photo", "error", err)
		metrics.UpstreamFailures.WithLabelValues("telegram").Inc()
		h.editText(ctx, b, chatID, processingMsg.ID, h.deps.Config.Messages.GeneralError, "")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, identifyTimeout)
	defer cancel()
	result, err := h.deps.Pipeline.Run(runCtx, tempPath)
	metrics.IdentificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.ErrorContext(ctx, "Identification failed", "error", err)
		h.editText(ctx, b, chatID, processingMsg.ID, format.Error(err), "")
		return
	}

	h.editText(ctx, b, chatID, processingMsg.ID, format.Results(result.Candidates), models.ParseModeMarkdown)

	top := result.Top()
	h.saveIdentification(ctx, log, chatID, userID, result.Candidates, top)

	if top != nil && top.Persona != "" {
		h.sendText(ctx, b, chatID, h.deps.Config.Messages.Channeling, "")
		h.sendText(ctx, b, chatID, format.PersonaMessage(top.Persona), models.ParseModeMarkdown)
	}

	log.InfoContext(ctx, "Photo processed", "candidates", len(result.Candidates),
		"duration_ms", time.Since(start).Milliseconds())
}

// saveIdentification persists the result for /my_plants. History is
// best-effort: a failed insert is logged, never surfaced to the user.
func (h photoRouter) saveIdentification(ctx context.Context, log *slog.Logger, chatID, userID int64, candidates []identify.Candidate, top *identify.Candidate) {
	if top == nil {
		return
	}

	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		log.ErrorContext(ctx, "Failed to marshal candidates", "error", err)
		candidatesJSON = []byte("[]")
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()
	rec := &database.Identification{
		CreatedAt:   time.Now().UTC(),
		ChatID:      chatID,
		UserID:      userID,
		SpeciesName: top.Name,
		Confidence:  top.Confidence,
		Candidates:  string(candidatesJSON),
	}
	if err := h.deps.Store.SaveIdentification(dbCtx, rec); err != nil {
		log.ErrorContext(ctx, "Failed to save identification history", "error", err)
	}
}

func (h photoRouter) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string, parseMode models.ParseMode) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	_, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

func (h photoRouter) editText(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, parseMode models.ParseMode) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	_, err := b.EditMessageText(sendCtx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to edit message", "error", err, "chat_id", chatID)
	}
}
