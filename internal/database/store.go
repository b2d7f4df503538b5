package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access layer for the identification history.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveIdentification inserts a new identification record.
	SaveIdentification(ctx context.Context, rec *Identification) error

	// GetRecentIdentifications retrieves the user's most recent 'limit'
	// identifications, newest first.
	GetRecentIdentifications(ctx context.Context, userID int64, limit int) ([]Identification, error)

	// DeleteIdentificationsBefore removes records older than the cutoff and
	// returns how many were deleted.
	DeleteIdentificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveIdentification inserts a new identification record.
func (s *sqlxStore) SaveIdentification(ctx context.Context, rec *Identification) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil identification")
	}
	if rec.UserID == 0 {
		return fmt.Errorf("identification must have a non-zero user_id")
	}
	if rec.SpeciesName == "" {
		return fmt.Errorf("identification must have a species name")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO identifications
		(created_at, chat_id, user_id, species_name, confidence, candidates)
		VALUES (:created_at, :chat_id, :user_id, :species_name, :confidence, :candidates)`

	result, err := s.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save identification",
			"user_id", rec.UserID, "species", rec.SpeciesName, "error", err)
		return fmt.Errorf("failed to save identification: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Identification saved",
		"id", rec.ID, "user_id", rec.UserID, "species", rec.SpeciesName)
	return nil
}

// GetRecentIdentifications retrieves a user's most recent identifications.
func (s *sqlxStore) GetRecentIdentifications(ctx context.Context, userID int64, limit int) ([]Identification, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []Identification
	query := `SELECT id, created_at, chat_id, user_id, species_name, confidence, candidates
		FROM identifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	if err := s.db.SelectContext(ctx, &records, query, userID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get recent identifications", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get recent identifications: %w", err)
	}
	return records, nil
}

// DeleteIdentificationsBefore removes history older than the cutoff.
func (s *sqlxStore) DeleteIdentificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM identifications WHERE created_at < ?`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete old identifications", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete old identifications: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted identifications: %w", err)
	}

	if deleted > 0 {
		s.logger.InfoContext(ctx, "Pruned old identifications", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// RunSQLMaintenance performs database maintenance.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	for _, stmt := range []string{"PRAGMA optimize", "VACUUM"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("maintenance statement %q failed: %w", stmt, err)
		}
	}
	s.logger.InfoContext(ctx, "SQL maintenance completed")
	return nil
}
