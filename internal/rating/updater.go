// internal/rating/updater.go
//
// Consumes finished-match outcomes and turns them into rating
// mutations plus history entries. Persistence failures are logged and
// swallowed: the session's outcome is authoritative whether or not
// the rating side-effect lands.
package rating

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Outcome is a finished rated match as reported by the directory.
// WinnerID empty with Draw false means an unreported result and is a
// no-op.
type Outcome struct {
	MatchID  string
	PlayerA  string
	PlayerB  string
	WinnerID string
	Draw     bool
}

// Change is one participant's rating movement, used for the
// rating-changed notification.
type Change struct {
	UserID string `json:"userId"`
	Before int    `json:"before"`
	After  int    `json:"after"`
	Delta  int    `json:"delta"`
	Result string `json:"result"`
}

// Updater applies outcomes through a Store.
type Updater struct {
	store Store
}

// NewUpdater constructs an Updater over st.
func NewUpdater(st Store) *Updater { return &Updater{store: st} }

// Apply computes and persists both sides' new ratings. It returns the
// two changes and whether the outcome produced any (an outcome with
// neither winner nor draw does not).
func (u *Updater) Apply(ctx context.Context, o Outcome) ([2]Change, bool) {
	if o.WinnerID == "" && !o.Draw {
		return [2]Change{}, false
	}
	if o.WinnerID != "" && o.WinnerID != o.PlayerA && o.WinnerID != o.PlayerB {
		log.Warn().Str("match", o.MatchID).Str("winner", o.WinnerID).Msg("winner is not a match participant")
		return [2]Change{}, false
	}

	ra, err := u.store.Ensure(ctx, o.PlayerA)
	if err != nil {
		log.Warn().Err(err).Str("user", o.PlayerA).Msg("load rating record")
		ra = Record{UserID: o.PlayerA, Rating: DefaultRating}
	}
	rb, err := u.store.Ensure(ctx, o.PlayerB)
	if err != nil {
		log.Warn().Err(err).Str("user", o.PlayerB).Msg("load rating record")
		rb = Record{UserID: o.PlayerB, Rating: DefaultRating}
	}

	scoreA, scoreB := 0.5, 0.5
	resultA, resultB := "draw", "draw"
	switch o.WinnerID {
	case o.PlayerA:
		scoreA, scoreB = 1, 0
		resultA, resultB = "win", "loss"
	case o.PlayerB:
		scoreA, scoreB = 0, 1
		resultA, resultB = "loss", "win"
	}

	// Both expectations come from the same pre-match pair.
	expA := Expected(ra.Rating, rb.Rating)
	expB := Expected(rb.Rating, ra.Rating)
	newA := Next(ra.Rating, KFactor(ra.GamesPlayed), scoreA, expA)
	newB := Next(rb.Rating, KFactor(rb.GamesPlayed), scoreB, expB)

	now := time.Now().UTC()
	changes := [2]Change{
		{UserID: ra.UserID, Before: ra.Rating, After: newA, Delta: newA - ra.Rating, Result: resultA},
		{UserID: rb.UserID, Before: rb.Rating, After: newB, Delta: newB - rb.Rating, Result: resultB},
	}

	recs := [2]Record{
		{UserID: ra.UserID, Rating: newA, GamesPlayed: ra.GamesPlayed + 1},
		{UserID: rb.UserID, Rating: newB, GamesPlayed: rb.GamesPlayed + 1},
	}
	hist := [2]HistoryEntry{
		{UserID: ra.UserID, MatchID: o.MatchID, Before: ra.Rating, After: newA, Change: newA - ra.Rating, Result: resultA, CreatedAt: now},
		{UserID: rb.UserID, MatchID: o.MatchID, Before: rb.Rating, After: newB, Change: newB - rb.Rating, Result: resultB, CreatedAt: now},
	}
	if err := u.store.Apply(ctx, recs, hist); err != nil {
		// Non-fatal: the match result stands, storage catches up later.
		log.Warn().Err(err).Str("match", o.MatchID).Msg("persist rating update")
	}
	return changes, true
}
