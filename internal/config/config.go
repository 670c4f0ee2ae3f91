package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Proxy
	Port       string
	BackendURL string
	DistDir    string

	// Backend client
	ClientTimeout time.Duration

	// Persisted viewer configuration
	StoreKind string
	StoreDir  string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
// The proxy listens on 8200 and forwards to a backend on localhost:8000 by default.
func Load() Config {
	return Config{
		// Proxy
		Port:       getEnv("COGNEE_VIEWER_PORT", "8200"),
		BackendURL: strings.TrimRight(getEnv("COGNEE_BACKEND_URL", "http://localhost:8000"), "/"),
		DistDir:    getEnv("COGNEE_VIEWER_DIST_DIR", ""),

		// Client
		ClientTimeout: parseDuration(getEnv("COGNEE_CLIENT_TIMEOUT", ""), 5*time.Minute),

		// Store
		StoreKind: strings.ToLower(getEnv("COGNEE_VIEWER_STORE", "file")),
		StoreDir:  getEnv("COGNEE_VIEWER_CONFIG_DIR", defaultStoreDir()),

		// Logging
		LogFile:  getEnv("COGNEE_VIEWER_LOG_FILE", "/tmp/cognee-viewer.log"),
		LogLevel: parseLogLevel(getEnv("COGNEE_VIEWER_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func defaultStoreDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cognee-viewer")
	}
	return filepath.Join(dir, "cognee-viewer")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
