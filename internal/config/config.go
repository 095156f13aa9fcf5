package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DocsRoot          string
	TranslateEndpoint string
	RequestDelay      time.Duration
	BatchPause        time.Duration
	BatchFiles        int
	MaxSegmentLength  int
	HTTPTimeout       time.Duration
	TranslationCache  string
	CacheSize         int
	DatabaseURL       string
	DocsBaseURL       string
	TablesFile        string
	CheckWorkers      int
	LogLevel          string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DocsRoot:          getEnv("DOCS_ROOT", "."),
		TranslateEndpoint: getEnv("TRANSLATE_ENDPOINT", "https://translate.googleapis.com/translate_a/single"),
		RequestDelay:      getEnvDuration("REQUEST_DELAY", 200*time.Millisecond),
		BatchPause:        getEnvDuration("BATCH_PAUSE", 2*time.Second),
		BatchFiles:        getEnvInt("BATCH_FILES", 10),
		MaxSegmentLength:  getEnvInt("MAX_SEGMENT_LENGTH", 1000),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		TranslationCache:  getEnv("TRANSLATION_CACHE", "off"),
		CacheSize:         getEnvInt("CACHE_SIZE", 4096),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DocsBaseURL:       getEnv("DOCS_BASE_URL", "https://docs.superun.com"),
		TablesFile:        getEnv("TABLES_FILE", ""),
		CheckWorkers:      getEnvInt("CHECK_WORKERS", 8),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts a Go duration ("300ms") or a bare number of milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
