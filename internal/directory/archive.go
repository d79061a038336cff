// internal/directory/archive.go
//
// Durable record of finished matches. Archiving is best-effort and
// happens off the event path; the in-memory outcome is authoritative.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRoomNotFound is the structural failure for operations on an
// unknown room ID.
var ErrRoomNotFound = errors.New("room not found")

// FinishedMatch is one completed round, as persisted.
type FinishedMatch struct {
	ID         string
	PlayerX    string
	PlayerO    string
	Winner     string // participant ID, empty on draw
	Result     string // "X" | "O" | "draw"
	Moves      int
	Rated      bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Archiver stores finished matches.
type Archiver interface {
	SaveMatch(ctx context.Context, m FinishedMatch) error
}

// SQLArchiver writes finished matches to the matches table.
type SQLArchiver struct {
	db *sql.DB
}

// NewSQLArchiver wraps an opened database handle.
func NewSQLArchiver(db *sql.DB) *SQLArchiver { return &SQLArchiver{db: db} }

func (a *SQLArchiver) SaveMatch(ctx context.Context, m FinishedMatch) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO matches (id, player_x, player_o, winner, result, moves, rated, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		m.ID, m.PlayerX, m.PlayerO, m.Winner, m.Result, m.Moves, m.Rated,
		m.StartedAt.Format(time.RFC3339), m.FinishedAt.Format(time.RFC3339))
	return err
}
