package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Env              string
	DatabaseURL      string
	StoreBackend     string // postgres | sqlite | memory
	SQLitePath       string
	MaxDocumentBytes int64
	LanguagesFile    string
	ConfigsFile      string
	DetectMinScore   float64
	CommitAttempts   int
}

// Load reads configuration from environment variables with sensible
// defaults. A local .env file is loaded best-effort for dev convenience.
func Load() Config {
	_ = godotenv.Load()

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	backend := normalizeBackend(getEnv("STORE_BACKEND", "sqlite"))

	if env == "production" && backend == "postgres" && dbURL == "" {
		log.Printf("DATABASE_URL is required for the postgres backend in production")
	}

	return Config{
		Env:              env,
		DatabaseURL:      dbURL,
		StoreBackend:     backend,
		SQLitePath:       getEnv("SQLITE_PATH", "./data/doclex.db"),
		MaxDocumentBytes: getEnvInt64("MAX_DOCUMENT_BYTES", 1<<20),
		LanguagesFile:    getEnv("LANGUAGES_FILE", ""),
		ConfigsFile:      getEnv("CONFIGS_FILE", ""),
		DetectMinScore:   getEnvFloat("DETECT_MIN_SCORE", 0),
		CommitAttempts:   int(getEnvInt64("COMMIT_ATTEMPTS", 3)),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("env %s invalid float: %v", key, err)
		return def
	}
	return val
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "memory":
		return "memory"
	default:
		return "sqlite"
	}
}
