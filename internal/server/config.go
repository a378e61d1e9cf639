// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay service.
package server

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tyrowin/relaychat/internal/chat"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls
// and the relay's moderation policy.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	RateLimit       RateLimitConfig
	HistorySize     int
	ModeratorTags   []string
	ModerationMatch string
	AnnounceJoins   bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: 512,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		HistorySize:     chat.DefaultHistorySize,
		ModeratorTags:   append([]string(nil), chat.DefaultModeratorTags...),
		ModerationMatch: "exact",
		AnnounceJoins:   true,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 30 * time.Second,
	}
}

// sanitizeConfig returns a copy of cfg with every unset or invalid field
// replaced by its default. A nil cfg yields the defaults.
func sanitizeConfig(cfg *Config) Config {
	defaults := defaultConfig()
	if cfg == nil {
		return defaults
	}

	out := *cfg
	out.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	out.ModeratorTags = append([]string(nil), cfg.ModeratorTags...)

	if out.Port == "" {
		out.Port = defaults.Port
	}
	if !strings.Contains(out.Port, ":") {
		out.Port = ":" + out.Port
	}

	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}

	if out.RateLimit.Burst <= 0 {
		out.RateLimit.Burst = defaults.RateLimit.Burst
	}

	if out.RateLimit.RefillInterval <= 0 {
		out.RateLimit.RefillInterval = defaults.RateLimit.RefillInterval
	}

	if out.HistorySize <= 0 {
		out.HistorySize = defaults.HistorySize
	}

	if len(out.ModeratorTags) == 0 {
		out.ModeratorTags = defaults.ModeratorTags
	}

	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}

	return out
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	// SERVER_PORT wins over the PORT convention used by hosting platforms.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	if size := os.Getenv("HISTORY_SIZE"); size != "" {
		cfg.HistorySize = parseIntValue(size, cfg.HistorySize)
	}

	if tags := os.Getenv("MODERATOR_TAGS"); tags != "" {
		cfg.ModeratorTags = parseList(tags)
	}

	if match := os.Getenv("MODERATION_MATCH"); match != "" {
		cfg.ModerationMatch = match
	}

	if announce := os.Getenv("ANNOUNCE_JOINS"); announce != "" {
		cfg.AnnounceJoins = parseBool(announce, cfg.AnnounceJoins)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseSeconds(timeout, cfg.ShutdownTimeout)
	}

	return &cfg
}

// RelayOptions translates the moderation and history settings into options
// for chat.NewRelay.
func (c *Config) RelayOptions() chat.Options {
	cfg := sanitizeConfig(c)
	return chat.Options{
		HistorySize:   cfg.HistorySize,
		Guard:         chat.NewGuard(chat.ParseMatchMode(cfg.ModerationMatch), cfg.ModeratorTags...),
		AnnounceJoins: cfg.AnnounceJoins,
	}
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func parseBool(value string, defaultValue bool) bool {
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}
	return defaultValue
}
