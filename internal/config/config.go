// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FeedSpec names one RSS source to collect.
type FeedSpec struct {
	Name string
	URL  string
}

// Config holds the application configuration.
type Config struct {
	DatabasePath    string
	HTTPAddr        string
	LogLevel        string
	Feeds           []FeedSpec
	BatchSize       int
	IntervalMinutes int

	// Optional Telegram alert delivery; disabled when the token is empty.
	TelegramBotToken string
	TelegramChatID   int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:    envOrDefault("DATABASE_PATH", "./data/shield.db"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		BatchSize:       100,
		IntervalMinutes: 15,
	}

	if raw := os.Getenv("BATCH_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BATCH_SIZE %q", raw)
		}
		cfg.BatchSize = n
	}

	if raw := os.Getenv("INGEST_INTERVAL_MINUTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid INGEST_INTERVAL_MINUTES %q", raw)
		}
		cfg.IntervalMinutes = n
	}

	feeds, err := parseFeeds(os.Getenv("FEEDS"))
	if err != nil {
		return nil, err
	}
	cfg.Feeds = feeds

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.TelegramBotToken != "" {
		raw := os.Getenv("TELEGRAM_CHAT_ID")
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = chatID
	}

	return cfg, nil
}

// parseFeeds parses a comma-separated list of name=url pairs.
func parseFeeds(raw string) ([]FeedSpec, error) {
	if raw == "" {
		return nil, nil
	}
	var feeds []FeedSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid feed entry %q in FEEDS (want name=url)", part)
		}
		feeds = append(feeds, FeedSpec{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return feeds, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
