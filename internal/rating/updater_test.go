package rating

import (
	"context"
	"testing"
)

func seeded(t *testing.T, users map[string]Record) *MemoryStore {
	t.Helper()
	st := NewMemoryStore()
	for id, r := range users {
		r.UserID = id
		st.records[id] = r
	}
	return st
}

func TestApplyWinnerTakesPoints(t *testing.T) {
	st := seeded(t, map[string]Record{
		"a": {Rating: 1200, GamesPlayed: 10},
		"b": {Rating: 1200, GamesPlayed: 10},
	})
	u := NewUpdater(st)

	changes, ok := u.Apply(context.Background(), Outcome{
		MatchID: "m1", PlayerA: "a", PlayerB: "b", WinnerID: "a",
	})
	if !ok {
		t.Fatal("decisive outcome reported as no-op")
	}
	// Equal 1200s, both provisional: K=40, expected 0.5 each.
	if changes[0].After != 1220 || changes[1].After != 1180 {
		t.Errorf("ratings after = %d/%d, want 1220/1180", changes[0].After, changes[1].After)
	}
	if changes[0].Result != "win" || changes[1].Result != "loss" {
		t.Errorf("results = %s/%s", changes[0].Result, changes[1].Result)
	}

	ra, _ := st.Ensure(context.Background(), "a")
	if ra.Rating != 1220 || ra.GamesPlayed != 11 {
		t.Errorf("persisted a = %+v", ra)
	}
	hist, _ := st.History(context.Background(), "b", 10)
	if len(hist) != 1 || hist[0].Before != 1200 || hist[0].After != 1180 || hist[0].Change != -20 {
		t.Errorf("history for b = %+v", hist)
	}
}

func TestApplyDraw(t *testing.T) {
	st := seeded(t, map[string]Record{
		"a": {Rating: 1300, GamesPlayed: 50},
		"b": {Rating: 1300, GamesPlayed: 50},
	})
	u := NewUpdater(st)

	changes, ok := u.Apply(context.Background(), Outcome{
		MatchID: "m1", PlayerA: "a", PlayerB: "b", Draw: true,
	})
	if !ok {
		t.Fatal("draw reported as no-op")
	}
	if changes[0].Delta != 0 || changes[1].Delta != 0 {
		t.Errorf("equal-rating draw moved ratings: %+v", changes)
	}
	if changes[0].Result != "draw" || changes[1].Result != "draw" {
		t.Errorf("results = %s/%s, want draw/draw", changes[0].Result, changes[1].Result)
	}
}

func TestApplyNoResultIsNoop(t *testing.T) {
	st := NewMemoryStore()
	u := NewUpdater(st)
	if _, ok := u.Apply(context.Background(), Outcome{MatchID: "m", PlayerA: "a", PlayerB: "b"}); ok {
		t.Fatal("outcome without winner or draw applied")
	}
	if len(st.records) != 0 {
		t.Error("no-op outcome touched the store")
	}
}

func TestApplyForeignWinnerIsNoop(t *testing.T) {
	st := NewMemoryStore()
	u := NewUpdater(st)
	if _, ok := u.Apply(context.Background(), Outcome{
		MatchID: "m", PlayerA: "a", PlayerB: "b", WinnerID: "intruder",
	}); ok {
		t.Fatal("winner outside the match applied as a result")
	}
	if hist, _ := st.History(context.Background(), "a", 10); len(hist) != 0 {
		t.Errorf("foreign winner minted history: %+v", hist)
	}
}

func TestApplyLazilyCreatesRecords(t *testing.T) {
	st := NewMemoryStore()
	u := NewUpdater(st)
	changes, ok := u.Apply(context.Background(), Outcome{
		MatchID: "m", PlayerA: "new1", PlayerB: "new2", WinnerID: "new2",
	})
	if !ok {
		t.Fatal("outcome not applied")
	}
	if changes[0].Before != DefaultRating || changes[1].Before != DefaultRating {
		t.Errorf("unknown participants should start at %d: %+v", DefaultRating, changes)
	}
	if changes[1].After != 1220 {
		t.Errorf("fresh winner after = %d, want 1220", changes[1].After)
	}
}

func TestApplyAsymmetricKFactors(t *testing.T) {
	// Provisional a (K=40) vs established b (K=32), equal ratings:
	// the two deltas differ in magnitude but both come from the same
	// pre-match expectations.
	st := seeded(t, map[string]Record{
		"a": {Rating: 1200, GamesPlayed: 5},
		"b": {Rating: 1200, GamesPlayed: 80},
	})
	u := NewUpdater(st)
	changes, _ := u.Apply(context.Background(), Outcome{
		MatchID: "m", PlayerA: "a", PlayerB: "b", WinnerID: "a",
	})
	if changes[0].Delta != 20 {
		t.Errorf("provisional winner delta = %d, want +20", changes[0].Delta)
	}
	if changes[1].Delta != -16 {
		t.Errorf("established loser delta = %d, want -16", changes[1].Delta)
	}
}
