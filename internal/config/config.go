package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL   string
	JWTSecret     string
	HTTPAddr      string
	LogLevel      string
	Env           string // dev|prod
	SentryDSN     string
	Location      *time.Location
	StorageDir    string
	PublicBaseURL string

	// Распознаватель: либо внешний процесс, либо HTTP-сервис (если задан URL).
	RecognizerCmd     []string
	RecognizerURL     string
	RecognizerTimeout time.Duration
	// одновременно запущенных распознаваний, не больше
	RecognizerConcurrency int

	DebugImageTTL time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	recTimeout, err := parseDuration("RECOGNIZER_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := parseDuration("DEBUG_IMAGE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	conc, err := parsePositiveInt("RECOGNIZER_CONCURRENCY", runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	cmd := strings.Fields(getenv("RECOGNIZER_CMD", "python3 process_omr.py"))
	if len(cmd) == 0 {
		return nil, fmt.Errorf("RECOGNIZER_CMD: empty command")
	}

	cfg := &Config{
		DatabaseURL:       mustEnv("DATABASE_URL"),
		JWTSecret:         mustEnv("JWT_SECRET"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		Env:               getenv("ENV", "dev"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		Location:          loc,
		StorageDir:        getenv("STORAGE_DIR", "./storage"),
		PublicBaseURL:     strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		RecognizerCmd:     cmd,
		RecognizerURL:     os.Getenv("RECOGNIZER_URL"),
		RecognizerTimeout: recTimeout,
		DebugImageTTL:     ttl,

		RecognizerConcurrency: conc,
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseDuration(k string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(k))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", k, d)
	}
	return d, nil
}

func parsePositiveInt(k string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(k))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", k, n)
	}
	return n, nil
}
