package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	backendURLENV     = "BACKEND_URL"
	baseURLENV        = "BASE_URL"
	vcENV             = "VC"
	apiKeyENV         = "API_KEY"
	imeiENV           = "IMEI"
	databaseDSNENV    = "DATABASE_DSN"
	redisAddrENV      = "REDIS_ADDR"
	telegramTokenENV  = "TELEGRAM_TOKEN"
	telegramChatENV   = "TELEGRAM_CHAT_ID"
	savePathENV       = "SAVE_PATH"
	sessionFileENV    = "SESSION_FILE"
)

// Config ...
type Config struct {
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
	} `yaml:"service"`

	// Broker endpoints. BaseURL is the REST surface, WSURL the tick stream.
	BaseURL string `yaml:"base_url"`
	WSURL   string `yaml:"ws_url"`

	// BackendURL is where the tick worker finds the control API.
	BackendURL string `yaml:"backend_url"`

	// Vendor credentials; the password and second factor only travel through
	// /server_login, never through the config file.
	VC     string `yaml:"vc"`
	APIKey string `yaml:"api_key"`
	IMEI   string `yaml:"imei"`

	DB        string `yaml:"db_dsn"`
	RedisAddr string `yaml:"redis_addr"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	SavePath    string `yaml:"save_path"`
	SessionFile string `yaml:"session_file"`

	TRMSettingsFile string `yaml:"trm_settings_file"`
	QuantityMapFile string `yaml:"quantity_map_file"`

	// Pipeline cadence.
	BackfillDays   int
	MergeEvery     time.Duration
	SignalEvery    time.Duration
	TrailEvery     time.Duration
	RestTimeout    time.Duration
	WorkerBackoff  time.Duration
	TickWorkerBin  string
	TickBufferSize int
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}

	config := Config{
		BackfillDays:   intFromEnv("BACKFILL_DAYS", 60),
		MergeEvery:     durationFromEnv("MERGE_EVERY", "3s"),
		SignalEvery:    durationFromEnv("SIGNAL_EVERY", "5m"),
		TrailEvery:     durationFromEnv("TRAIL_EVERY", "5s"),
		RestTimeout:    durationFromEnv("REST_TIMEOUT", "10s"),
		WorkerBackoff:  durationFromEnv("WORKER_BACKOFF", "5s"),
		TickWorkerBin:  getenvDefault("TICK_WORKER_BIN", "./tickworker"),
		TickBufferSize: intFromEnv("TICK_BUFFER_SIZE", 4096),
	}

	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// env overrides the file
	overlay(&config.BackendURL, backendURLENV)
	overlay(&config.BaseURL, baseURLENV)
	overlay(&config.VC, vcENV)
	overlay(&config.APIKey, apiKeyENV)
	overlay(&config.IMEI, imeiENV)
	overlay(&config.DB, databaseDSNENV)
	overlay(&config.RedisAddr, redisAddrENV)
	overlay(&config.Telegram.Token, telegramTokenENV)
	overlay(&config.SavePath, savePathENV)
	overlay(&config.SessionFile, sessionFileENV)
	if v := os.Getenv(telegramChatENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	if config.SavePath == "" {
		config.SavePath = "./candles"
	}
	if config.SessionFile == "" {
		config.SessionFile = "session.json"
	}

	return &config, nil
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
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
