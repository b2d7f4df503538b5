package handlers

import (
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestPickBestPhoto(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		sizes      []models.PhotoSize
		wantFileID string
		wantOK     bool
	}{
		{
			name:   "empty slice",
			sizes:  nil,
			wantOK: false,
		},
		{
			name: "single size",
			sizes: []models.PhotoSize{
				{FileID: "only", Width: 90, Height: 90},
			},
			wantFileID: "only",
			wantOK:     true,
		},
		{
			name: "largest by area wins",
			sizes: []models.PhotoSize{
				{FileID: "small", Width: 90, Height: 90},
				{FileID: "large", Width: 1280, Height: 960},
				{FileID: "medium", Width: 320, Height: 240},
			},
			wantFileID: "large",
			wantOK:     true,
		},
		{
			name: "area beats single dimension",
			sizes: []models.PhotoSize{
				{FileID: "wide", Width: 2000, Height: 10},
				{FileID: "square", Width: 500, Height: 500},
			},
			wantFileID: "square",
			wantOK:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			best, ok := pickBestPhoto(tc.sizes)
			if ok != tc.wantOK {
				t.Fatalf("pickBestPhoto ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && best.FileID != tc.wantFileID {
				t.Errorf("pickBestPhoto FileID = %q, want %q", best.FileID, tc.wantFileID)
			}
		})
	}
}

func TestTempPhotoPath(t *testing.T) {
	t.Parallel()

	path := tempPhotoPath(12345, "abc-def")
	if !strings.Contains(path, "plant_12345_abc-def.jpg") {
		t.Errorf("tempPhotoPath = %q, want it to contain plant_12345_abc-def.jpg", path)
	}

	other := tempPhotoPath(12345, "other-id")
	if path == other {
		t.Error("expected distinct correlation IDs to produce distinct paths")
	}
}
