package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/pdfmarks/internal/outline"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Outline limits
	MaxOutlineDepth int
	MaxOutlineNodes int

	// Dump defaults, overridable per request
	DumpNewline string // "lf" or "crlf"
	DumpASCII   bool

	// Dump cache; empty path disables it
	CacheDBPath string
	CacheTTL    time.Duration

	// PDF
	PDFPassword string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PDFMARKS_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		MaxOutlineDepth: envInt("MAX_OUTLINE_DEPTH", outline.DefaultMaxDepth),
		MaxOutlineNodes: envInt("MAX_OUTLINE_NODES", outline.DefaultMaxNodes),

		DumpNewline: strings.ToLower(envOr("DUMP_NEWLINE", "lf")),
		DumpASCII:   envBool("DUMP_ASCII", false),

		CacheDBPath: os.Getenv("CACHE_DB_PATH"),
		CacheTTL:    envDuration("CACHE_TTL", 7*24*time.Hour),

		PDFPassword: os.Getenv("PDF_PASSWORD"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.MaxOutlineDepth <= 0 {
		cfg.MaxOutlineDepth = outline.DefaultMaxDepth
	}
	if cfg.MaxOutlineNodes <= 0 {
		cfg.MaxOutlineNodes = outline.DefaultMaxNodes
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PDFMARKS_API_KEY is required")
	}
	if _, err := NewlineSeq(c.DumpNewline); err != nil {
		return fmt.Errorf("DUMP_NEWLINE: %w", err)
	}
	return nil
}

// NewlineSeq maps a newline name to its byte sequence.
func NewlineSeq(name string) (string, error) {
	switch strings.ToLower(name) {
	case "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	default:
		return "", fmt.Errorf("unknown newline %q (want lf or crlf)", name)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
