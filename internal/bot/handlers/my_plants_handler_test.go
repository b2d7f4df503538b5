package handlers

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/verdantlab/papabois/internal/config"
	"github.com/verdantlab/papabois/internal/database"
	"github.com/verdantlab/papabois/internal/state"
)

func newMyPlantsDeps(store database.Store) HandlerDeps {
	return HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{Messages: testMessages()},
		Store:  store,
		States: state.NewTracker(),
	}
}

func TestMyPlantsHandlerListsHistory(t *testing.T) {
	store := &recordingStore{}
	store.saved = []database.Identification{
		{
			CreatedAt:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			ChatID:      100,
			UserID:      100,
			SpeciesName: "Ficus elastica",
			Confidence:  0.876,
		},
	}

	handler := myPlantsHandler{newMyPlantsDeps(store)}
	b, rec := newTestTelegramBot(t)

	handler.Handle(context.Background(), b, textUpdate(100, "/my_plants"))

	body, ok := rec.bodyOf("sendMessage")
	if !ok {
		t.Fatal("expected a sendMessage call with the history")
	}
	if !strings.Contains(body, "Ficus elastica") {
		t.Errorf("history body = %q, want it to name the species", body)
	}
	if !strings.Contains(body, "(87.6%)") {
		t.Errorf("history body = %q, want confidence as one-decimal percentage in parentheses", body)
	}
	if strings.Contains(body, "—") {
		t.Errorf("history body = %q, want plain ASCII separators only", body)
	}
}

func TestMyPlantsHandlerEmptyHistory(t *testing.T) {
	handler := myPlantsHandler{newMyPlantsDeps(&recordingStore{})}
	b, rec := newTestTelegramBot(t)

	handler.Handle(context.Background(), b, textUpdate(100, "/my_plants"))

	if !rec.hasCall("sendMessage", "no plants yet") {
		t.Errorf("expected the empty-history reply, calls: %v", rec.methods())
	}
}
