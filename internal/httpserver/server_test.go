package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daile269/zcaro-online/internal/config"
	"github.com/daile269/zcaro-online/internal/directory"
	"github.com/daile269/zcaro-online/internal/rating"
	"github.com/daile269/zcaro-online/internal/session"
)

func newTestServer(t *testing.T) (*Server, *directory.Directory, *rating.MemoryStore) {
	t.Helper()
	cfg := config.Config{
		ClientOrigin:       "http://client.test",
		BoardSize:          17,
		LockedCellCount:    3,
		LockedMinGap:       5,
		LockedMaxGap:       10,
		OpeningMinDistance: 5,
		TurnTimeout:        time.Hour,
		ReconnectGrace:     time.Hour,
		SweepInterval:      time.Hour,
	}
	st := rating.NewMemoryStore()
	hub := NewHub()
	dir := directory.New(cfg, rating.NewUpdater(st), nil, hub)
	return New(cfg, dir, hub, nil, st), dir, st
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestLobbyListsPublicRooms(t *testing.T) {
	s, dir, _ := newTestServer(t)
	open := dir.CreateRoom(session.Participant{ID: "alice", Name: "alice", Rating: 1200}, false, false)
	dir.CreateRoom(session.Participant{ID: "bob", Name: "bob", Rating: 1200}, false, true)

	rec := get(t, s, "/lobby")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Rooms   []session.Snapshot `json:"rooms"`
		Waiting int                `json:"waiting"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rooms) != 1 || body.Rooms[0].ID != open.ID {
		t.Errorf("lobby rooms = %+v, want only the public room", body.Rooms)
	}
	if body.Waiting != 0 {
		t.Errorf("waiting = %d", body.Waiting)
	}
}

func TestLeaderboard(t *testing.T) {
	s, _, st := newTestServer(t)
	seed := [2]rating.Record{
		{UserID: "strong", Rating: 1500, GamesPlayed: 40},
		{UserID: "weak", Rating: 1100, GamesPlayed: 12},
	}
	if err := st.Apply(context.Background(), seed, [2]rating.HistoryEntry{}); err != nil {
		t.Fatal(err)
	}

	rec := get(t, s, "/leaderboard?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []rating.LeaderboardRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[0].UserID != "strong" {
		t.Errorf("leaderboard = %+v, want strong first", rows)
	}
}

func TestHistoryRequiresAuth(t *testing.T) {
	s, _, _ := newTestServer(t)
	if rec := get(t, s, "/ratings/me/history"); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(t, s, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Errorf("not-found body is not JSON: %q", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/lobby", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("preflight missing credentials header")
	}
	// The allowed origin comes from config, not ambient environment.
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://client.test" {
		t.Errorf("allowed origin = %q, want the configured one", got)
	}
}
