package database

import (
	"time"
)

// Identification is one recorded photo identification: who asked, what the
// top-ranked species was, and the full candidate list as JSON for later
// inspection.
type Identification struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID      int64   `db:"chat_id"`
	UserID      int64   `db:"user_id"`
	SpeciesName string  `db:"species_name"`
	Confidence  float64 `db:"confidence"`
	Candidates  string  `db:"candidates"`
}
