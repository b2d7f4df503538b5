package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	photoDownloadTimeout = 30 * time.Second
	identifyTimeout      = 2 * time.Minute
	sendMessageTimeout   = 10 * time.Second
	dbOperationTimeout   = 5 * time.Second

	maxPhotoBytes = 10 * 1024 * 1024
)

// pickBestPhoto returns the highest-resolution size from a Telegram photo
// array. Telegram sends several downscaled variants per photo; the largest
// one gives the identification service the most detail to work with.
func pickBestPhoto(sizes []models.PhotoSize) (models.PhotoSize, bool) {
	if len(sizes) == 0 {
		return models.PhotoSize{}, false
	}
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best, true
}

// tempPhotoPath builds the path for a downloaded photo in the system temp
// directory. The correlation ID keeps concurrent downloads for the same user
// from clobbering each other.
func tempPhotoPath(userID int64, correlationID string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("plant_%d_%s.jpg", userID, correlationID))
}

// DownloadPhotoToFile fetches a Telegram file by ID and writes it to destPath.
// The download is capped at maxPhotoBytes.
func DownloadPhotoToFile(ctx context.Context, b *bot.Bot, token, fileID, destPath string) (err error) {
	if token == "" {
		return fmt.Errorf("empty token provided")
	}
	if fileID == "" {
		return fmt.Errorf("empty fileID provided")
	}
	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before file download: %w", ctx.Err())
	}
	downloadCtx, cancel := context.WithTimeout(ctx, photoDownloadTimeout)
	defer cancel()
	fileObj, err := b.GetFile(downloadCtx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}
	if fileObj.FilePath == "" {
		return fmt.Errorf("empty file path returned from Telegram")
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	written, err := io.Copy(out, io.LimitReader(resp.Body, maxPhotoBytes))
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("received empty file data")
	}
	return nil
}
