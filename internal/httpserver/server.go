// internal/httpserver/server.go
//
// HTTP wiring for the zcaro backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/lobby", "/leaderboard".
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /auth/me.
//   - Rating history for the signed-in user: /ratings/me/history.
//   - The realtime endpoint: GET /ws (optional auth; guests welcome).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Room and queue mutation never happens here; everything flows
//     through the directory, and state reaches clients over the hub.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/daile269/zcaro-online/internal/config"
	"github.com/daile269/zcaro-online/internal/directory"
	"github.com/daile269/zcaro-online/internal/rating"
)

// Server bundles the router, the directory, the hub, and persistence.
type Server struct {
	r       *chi.Mux
	dir     *directory.Directory
	hub     *Hub
	db      *sql.DB
	ratings rating.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, dir *directory.Directory, hub *Hub, db *sql.DB, ratings rating.Store) *Server {
	s := &Server{r: chi.NewRouter(), dir: dir, hub: hub, db: db, ratings: ratings}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors(cfg.ClientOrigin))

	// The websocket route must not sit behind the timeout middleware.
	s.r.Get("/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"zcaro-online","endpoints":["/health","/lobby","/leaderboard","/auth/*","GET /ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// --- lobby + ratings ---
		r.Get("/lobby", s.handleLobby)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.With(s.requireAuth()).Get("/ratings/me/history", s.handleMyHistory)

		// --- auth ---
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.With(s.requireAuth()).Get("/auth/me", s.handleMe)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+req.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the single configured client
// origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ lobby --------------------------------------

// handleLobby lists snapshots of every public room plus the queue
// depth.
func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"rooms":   s.dir.Rooms(),
		"waiting": s.dir.QueueLen(),
	})
}

// handleLeaderboard returns the top-rated players.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := s.ratings.Leaderboard(r.Context(), limit)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// handleMyHistory returns the signed-in user's rating history, newest
// first.
func (s *Server) handleMyHistory(w http.ResponseWriter, r *http.Request) {
	me, err := currentUser(r)
	if err != nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	hist, err := s.ratings.History(r.Context(), me.ID, 50)
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if hist == nil {
		hist = []rating.HistoryEntry{}
	}
	_ = json.NewEncoder(w).Encode(hist)
}
