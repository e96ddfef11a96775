package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port     int
	DBPath   string
	LogLevel string
	APIKey   string
	// Catalog seeding
	CatalogPath     string
	CatalogAutoSync bool
	// Time-up prompt workflow
	PopupWindowSeconds   int
	PopupReminderSeconds int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 envInt("PORT", 8750),
		DBPath:               envStr("WORKTRACK_DB_PATH", "/data/worktrack.db"),
		LogLevel:             envStr("LOG_LEVEL", "info"),
		APIKey:               envStr("API_KEY", ""),
		CatalogPath:          envStr("CATALOG_PATH", ""),
		CatalogAutoSync:      envBool("CATALOG_AUTO_SYNC", true),
		PopupWindowSeconds:   envInt("POPUP_WINDOW_SECONDS", 600),
		PopupReminderSeconds: envInt("POPUP_REMINDER_SECONDS", 600),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("WORKTRACK_DB_PATH must not be empty")
	}
	if c.PopupWindowSeconds < 1 {
		return fmt.Errorf("POPUP_WINDOW_SECONDS must be positive, got %d", c.PopupWindowSeconds)
	}
	if c.PopupReminderSeconds < 1 {
		return fmt.Errorf("POPUP_REMINDER_SECONDS must be positive, got %d", c.PopupReminderSeconds)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
