package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL                string
	ServerPort                 int
	LeaderboardRefreshInterval time.Duration
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	refreshStr := os.Getenv("LEADERBOARD_REFRESH_INTERVAL")
	if refreshStr == "" {
		refreshStr = "1m"
	}
	refresh, err := time.ParseDuration(refreshStr)
	if err != nil {
		return nil, fmt.Errorf("invalid LEADERBOARD_REFRESH_INTERVAL environment variable: %w", err)
	}
	if refresh < time.Second {
		return nil, fmt.Errorf("LEADERBOARD_REFRESH_INTERVAL must be at least 1s, got %v", refresh)
	}

	cfg := &Config{
		DatabaseURL:                dbURL,
		ServerPort:                 port,
		LeaderboardRefreshInterval: refresh,
	}

	return cfg, nil
}
