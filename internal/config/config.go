// Package config is the environment-only configuration of the tick worker.
// The worker is spawned by the trader and inherits its environment; it never
// reads the yaml config file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL string // BACKEND_URL, the trader's control api
	BaseURL    string // BASE_URL, broker REST
	WSURL      string // WS_URL, broker tick stream

	SavePath     string
	BackfillDays int
	MergeEvery   time.Duration
	RestTimeout  time.Duration
	TickBuffer   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{
		BackendURL:   getenvDefault("BACKEND_URL", "http://127.0.0.1:8080"),
		BaseURL:      os.Getenv("BASE_URL"),
		WSURL:        os.Getenv("WS_URL"),
		SavePath:     getenvDefault("SAVE_PATH", "./candles"),
		BackfillDays: intFromEnv("BACKFILL_DAYS", 60),
		MergeEvery:   durationFromEnv("MERGE_EVERY", "3s"),
		RestTimeout:  durationFromEnv("REST_TIMEOUT", "10s"),
		TickBuffer:   intFromEnv("TICK_BUFFER_SIZE", 4096),
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL is required")
	}
	if cfg.WSURL == "" {
		return nil, fmt.Errorf("WS_URL is required")
	}
	return cfg, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
