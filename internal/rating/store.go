// internal/rating/store.go
//
// Persistence for rating records and their append-only history.
// Implementations may be backed by memory (tests) or SQLite (the
// server). All writes are best-effort from the engine's point of
// view: a failed write never rolls back a finished match.
package rating

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"
)

// Record is one participant's current rating state.
type Record struct {
	UserID      string `json:"userId"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// HistoryEntry is the immutable before/after record of one match for
// one participant.
type HistoryEntry struct {
	UserID    string    `json:"userId"`
	MatchID   string    `json:"matchId"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Change    int       `json:"change"`
	Result    string    `json:"result"` // "win" | "loss" | "draw"
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardRow is one line of the rating leaderboard.
type LeaderboardRow struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

// Store defines the persistence interface the updater writes through.
type Store interface {
	// Ensure returns the participant's record, creating it with the
	// default rating and zero games played when missing.
	Ensure(ctx context.Context, userID string) (Record, error)

	// Apply persists both post-match records and appends one history
	// entry per participant, atomically where the backend allows.
	Apply(ctx context.Context, recs [2]Record, hist [2]HistoryEntry) error

	// History returns a participant's entries, newest first.
	History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)

	// Leaderboard returns the top-rated participants.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

// ---------------------------- SQLite store ---------------------------------

// SQLStore persists ratings in the users table and history in
// rating_history.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened database handle.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Ensure(ctx context.Context, userID string) (Record, error) {
	rec := Record{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT rating, games_played FROM users WHERE id=?`, userID,
	).Scan(&rec.Rating, &rec.GamesPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		// Guest or not-yet-rated participant: no users row to create
		// here, rate from the defaults.
		return Record{UserID: userID, Rating: DefaultRating}, nil
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *SQLStore) Apply(ctx context.Context, recs [2]Record, hist [2]HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, r := range recs {
		res := hist[i].Result
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET rating=?, games_played=?,
				wins   = wins   + (?='win'),
				losses = losses + (?='loss'),
				draws  = draws  + (?='draw')
			WHERE id=?`,
			r.Rating, r.GamesPlayed, res, res, res, r.UserID); err != nil {
			return err
		}
	}
	for _, h := range hist {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rating_history (user_id, match_id, rating_before, rating_after, change, result, created_at)
			VALUES (?,?,?,?,?,?,?)`,
			h.UserID, h.MatchID, h.Before, h.After, h.Change, h.Result,
			h.CreatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, match_id, rating_before, rating_after, change, result, created_at
		FROM rating_history WHERE user_id=? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var created string
		if err := rows.Scan(&h.UserID, &h.MatchID, &h.Before, &h.After, &h.Change, &h.Result, &created); err != nil {
			return nil, err
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, rating, games_played, wins, losses, draws
		FROM users ORDER BY rating DESC, games_played DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Name, &r.Rating, &r.GamesPlayed, &r.Wins, &r.Losses, &r.Draws); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------- memory store ---------------------------------

// MemoryStore is the in-memory Store used by tests and unrated play.
type MemoryStore struct {
	records map[string]Record
	history map[string][]HistoryEntry
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		history: make(map[string][]HistoryEntry),
	}
}

func (m *MemoryStore) Ensure(ctx context.Context, userID string) (Record, error) {
	if r, ok := m.records[userID]; ok {
		return r, nil
	}
	r := Record{UserID: userID, Rating: DefaultRating}
	m.records[userID] = r
	return r, nil
}

func (m *MemoryStore) Apply(ctx context.Context, recs [2]Record, hist [2]HistoryEntry) error {
	for _, r := range recs {
		m.records[r.UserID] = r
	}
	for _, h := range hist {
		m.history[h.UserID] = append(m.history[h.UserID], h)
	}
	return nil
}

func (m *MemoryStore) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	hs := m.history[userID]
	out := make([]HistoryEntry, 0, len(hs))
	for i := len(hs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, hs[i])
	}
	return out, nil
}

func (m *MemoryStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var out []LeaderboardRow
	for _, r := range m.records {
		row := LeaderboardRow{UserID: r.UserID, Name: r.UserID, Rating: r.Rating, GamesPlayed: r.GamesPlayed}
		for _, h := range m.history[r.UserID] {
			switch h.Result {
			case "win":
				row.Wins++
			case "loss":
				row.Losses++
			case "draw":
				row.Draws++
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
