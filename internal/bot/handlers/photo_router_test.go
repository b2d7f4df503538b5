package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/verdantlab/papabois/internal/config"
	"github.com/verdantlab/papabois/internal/database"
	"github.com/verdantlab/papabois/internal/identify"
	"github.com/verdantlab/papabois/internal/plantid"
	"github.com/verdantlab/papabois/internal/state"
)

// tgRecorder captures calls made against a fake Telegram API server.
type tgRecorder struct {
	mu    sync.Mutex
	calls []tgCall
}

type tgCall struct {
	method string
	body   string
}

func (r *tgRecorder) record(method, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tgCall{method: method, body: body})
}

func (r *tgRecorder) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.method)
	}
	return out
}

func (r *tgRecorder) hasCall(method, bodySubstring string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.method == method && strings.Contains(c.body, bodySubstring) {
			return true
		}
	}
	return false
}

func (r *tgRecorder) bodyOf(method string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.method == method {
			return c.body, true
		}
	}
	return "", false
}

func newTestTelegramBot(t *testing.T) (*bot.Bot, *tgRecorder) {
	t.Helper()

	rec := &tgRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		rec.record(method, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "result": {"message_id": 7, "date": 1, "chat": {"id": 1, "type": "private"}}}`))
	}))
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test-token",
		bot.WithServerURL(srv.URL),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b, rec
}

type fakeIdentifier struct {
	ident    *plantid.Identification
	err      error
	panicMsg string
}

func (f *fakeIdentifier) Identify(_ context.Context, _ string) (*plantid.Identification, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.ident, f.err
}

func (f *fakeIdentifier) AskQuestion(_ context.Context, _, _ string) (string, error) {
	return "Traditionally brewed as a calming tea.", nil
}

type recordingStore struct {
	mu    sync.Mutex
	saved []database.Identification
}

func (s *recordingStore) Ping(_ context.Context) error { return nil }

func (s *recordingStore) SaveIdentification(_ context.Context, rec *database.Identification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *rec)
	return nil
}

func (s *recordingStore) GetRecentIdentifications(_ context.Context, _ int64, _ int) ([]database.Identification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.Identification(nil), s.saved...), nil
}

func (s *recordingStore) DeleteIdentificationsBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *recordingStore) RunSQLMaintenance(_ context.Context) error { return nil }

func testMessages() config.MessagesConfig {
	return config.MessagesConfig{
		Welcome:       "welcome",
		AskPhoto:      "send a photo",
		NotPhoto:      "Please send a photo 📸 of the plant you want to identify.",
		Processing:    "🔍 Processing your plant photo... Please wait...",
		Channeling:    "🌟 Let me channel the spirit of this plant...",
		GeneralError:  "❌ An error occurred. Please try again later.",
		HistoryEmpty:  "no plants yet",
		HistoryHeader: "🌿 *Your recent plants*\n\n",
	}
}

func newRouterFixture(t *testing.T, identifier *fakeIdentifier) (photoRouter, *recordingStore, *string) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &recordingStore{}
	deps := HandlerDeps{
		Logger: log,
		Config: &config.Config{
			Telegram: config.TelegramConfig{Token: "123:test-token"},
			Messages: testMessages(),
		},
		Store:    store,
		States:   state.NewTracker(),
		Pipeline: identify.New(identifier, nil, nil, log),
	}

	downloadedPath := new(string)
	router := photoRouter{
		deps: deps,
		download: func(_ context.Context, _ *bot.Bot, _, _, destPath string) error {
			*downloadedPath = destPath
			return os.WriteFile(destPath, []byte("jpg"), 0o600)
		},
	}
	return router, store, downloadedPath
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   5,
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: userID},
			Text: text,
		},
	}
}

func photoUpdate(userID int64) *models.Update {
	return &models.Update{
		ID: 2,
		Message: &models.Message{
			ID:    6,
			From:  &models.User{ID: userID},
			Chat:  models.Chat{ID: userID},
			Photo: []models.PhotoSize{{FileID: "photo-file", Width: 800, Height: 600}},
		},
	}
}

func assertTempFileGone(t *testing.T, path string) {
	t.Helper()
	if path == "" {
		t.Fatal("download was never invoked")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file %s still exists after photo handling", path)
	}
}

func TestPhotoRouterIgnoresIdleUser(t *testing.T) {
	router, _, _ := newRouterFixture(t, &fakeIdentifier{})
	b, rec := newTestTelegramBot(t)

	router.Handle(context.Background(), b, textUpdate(100, "hello"))

	if calls := rec.methods(); len(calls) != 0 {
		t.Errorf("idle user triggered Telegram calls: %v", calls)
	}
}

func TestPhotoRouterRejectsNonPhotoKeepsState(t *testing.T) {
	router, _, _ := newRouterFixture(t, &fakeIdentifier{})
	b, rec := newTestTelegramBot(t)

	router.deps.States.SetAwaitingPhoto(100)
	router.Handle(context.Background(), b, textUpdate(100, "is this a plant?"))

	body, ok := rec.bodyOf("sendMessage")
	if !ok {
		t.Fatal("expected a sendMessage call with the rejection reply")
	}
	if !strings.Contains(body, "Please send a photo") {
		t.Errorf("rejection reply body = %q, want the not-photo text", body)
	}
	if !router.deps.States.IsAwaitingPhoto(100) {
		t.Error("non-photo input cleared the awaiting-photo state, want it preserved")
	}
}

func TestPhotoRouterSuccessClearsStateAndTempFile(t *testing.T) {
	identifier := &fakeIdentifier{
		ident: &plantid.Identification{
			AccessToken: "tok-1",
			Suggestions: []plantid.Suggestion{
				{Name: "Monstera deliciosa", Probability: 0.93},
			},
		},
	}
	router, store, downloadedPath := newRouterFixture(t, identifier)
	b, rec := newTestTelegramBot(t)

	router.deps.States.SetAwaitingPhoto(100)
	router.Handle(context.Background(), b, photoUpdate(100))

	if router.deps.States.IsAwaitingPhoto(100) {
		t.Error("state still awaiting after successful identification")
	}
	assertTempFileGone(t, *downloadedPath)

	body, ok := rec.bodyOf("editMessageText")
	if !ok {
		t.Fatalf("expected the processing message to be edited, calls: %v", rec.methods())
	}
	if !strings.Contains(body, "Monstera deliciosa") {
		t.Errorf("result edit body = %q, want it to name the species", body)
	}

	if len(store.saved) != 1 || store.saved[0].SpeciesName != "Monstera deliciosa" {
		t.Errorf("saved history = %+v, want one Monstera deliciosa record", store.saved)
	}
}

func TestPhotoRouterPipelineErrorCleansUp(t *testing.T) {
	router, store, downloadedPath := newRouterFixture(t, &fakeIdentifier{err: errors.New("no plant matches found")})
	b, rec := newTestTelegramBot(t)

	router.deps.States.SetAwaitingPhoto(100)
	router.Handle(context.Background(), b, photoUpdate(100))

	if router.deps.States.IsAwaitingPhoto(100) {
		t.Error("state still awaiting after failed identification")
	}
	assertTempFileGone(t, *downloadedPath)

	body, ok := rec.bodyOf("editMessageText")
	if !ok {
		t.Fatal("expected the processing message to be edited with the error text")
	}
	if !strings.Contains(body, "❌") {
		t.Errorf("error edit body = %q, want the failure marker", body)
	}
	if len(store.saved) != 0 {
		t.Errorf("saved history = %+v, want none on failure", store.saved)
	}
}

func TestPhotoRouterPanicRecoversAndCleansUp(t *testing.T) {
	router, _, downloadedPath := newRouterFixture(t, &fakeIdentifier{panicMsg: "boom"})
	b, rec := newTestTelegramBot(t)

	router.deps.States.SetAwaitingPhoto(100)
	router.Handle(context.Background(), b, photoUpdate(100))

	if router.deps.States.IsAwaitingPhoto(100) {
		t.Error("state still awaiting after panic during processing")
	}
	assertTempFileGone(t, *downloadedPath)

	if !rec.hasCall("sendMessage", "An error occurred") {
		t.Errorf("expected a general-error reply after panic, calls: %v", rec.methods())
	}
}
