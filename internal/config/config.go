// internal/config/config.go
//
// Engine configuration, read once from the environment in main and
// injected everywhere else. Defaults reflect the standard deployment:
// 17×17 board, three locked cells spaced 5–10 apart, opening distance
// minimum 5.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the engine needs from its environment.
type Config struct {
	Port         string
	DSN          string
	ClientOrigin string

	BoardSize          int
	LockedCellCount    int
	LockedMinGap       int
	LockedMaxGap       int
	OpeningMinDistance int

	TurnTimeout    time.Duration
	ReconnectGrace time.Duration
	SweepInterval  time.Duration
}

// Load builds a Config from the environment with defaults.
func Load() Config {
	return Config{
		Port:         envStr("PORT", "5180"),
		DSN:          envStr("DSN", "./data/zcaro.db"),
		ClientOrigin: envStr("CLIENT_ORIGIN", "http://localhost:5173"),

		BoardSize:          envInt("BOARD_SIZE", 17),
		LockedCellCount:    envInt("LOCKED_CELL_COUNT", 3),
		LockedMinGap:       envInt("LOCKED_MIN_GAP", 5),
		LockedMaxGap:       envInt("LOCKED_MAX_GAP", 10),
		OpeningMinDistance: envInt("OPENING_MIN_DISTANCE", 5),

		TurnTimeout:    time.Duration(envInt("TURN_TIMEOUT_SECONDS", 60)) * time.Second,
		ReconnectGrace: time.Duration(envInt("RECONNECT_GRACE_SECONDS", 120)) * time.Second,
		SweepInterval:  time.Duration(envInt("SWEEP_INTERVAL_MS", 1000)) * time.Millisecond,
	}
}

func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
