package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/studentpay/backoffice/internal/core/client"
)

// Config собирается из переменных окружения (при наличии - из config.env).
type Config struct {
	APIBaseURL         string        // API_BASE_URL
	APIWithCredentials bool          // API_WITH_CREDENTIALS: пересылать cookie
	APIMode            client.Mode   // API_MODE: remote | fallback | mock
	RequestTimeout     time.Duration // REQUEST_TIMEOUT_MS, 0 = без таймаута
	MockLatency        time.Duration // MOCK_LATENCY_MS, имитация сети в демо-режиме

	ServerAddr  string // SERVER_ADDR, адрес заглушки бэкенда
	TLSCertFile string // TLS_CERT_FILE
	TLSKeyFile  string // TLS_KEY_FILE

	DB *DBConfig // nil, если DB_HOST не задан
}

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
}

const defaultMockLatency = 600 * time.Millisecond

func Load() (*Config, error) {
	// config.env необязателен: на проде всё приходит из окружения
	_ = godotenv.Load("config.env")

	cfg := &Config{
		APIBaseURL:         getEnv("API_BASE_URL", "/api"),
		APIWithCredentials: os.Getenv("API_WITH_CREDENTIALS") == "true",
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		TLSCertFile:        os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:         os.Getenv("TLS_KEY_FILE"),
	}

	mode, err := parseMode(getEnv("API_MODE", "fallback"))
	if err != nil {
		return nil, err
	}
	cfg.APIMode = mode

	timeout, err := durationEnv("REQUEST_TIMEOUT_MS", 0)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = timeout

	latency, err := durationEnv("MOCK_LATENCY_MS", defaultMockLatency)
	if err != nil {
		return nil, err
	}
	cfg.MockLatency = latency

	if os.Getenv("DB_HOST") != "" {
		db, err := loadDB()
		if err != nil {
			return nil, err
		}
		cfg.DB = db
	}

	return cfg, nil
}

func parseMode(raw string) (client.Mode, error) {
	switch raw {
	case "remote":
		return client.RemoteOnly, nil
	case "fallback":
		return client.RemoteWithFallback, nil
	case "mock":
		return client.MockOnly, nil
	default:
		return 0, fmt.Errorf("invalid API_MODE %q: want remote, fallback or mock", raw)
	}
}

func loadDB() (*DBConfig, error) {
	port, err := strconv.Atoi(os.Getenv("DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := intEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}

	maxIdle, err := intEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}

	return &DBConfig{
		Host:         os.Getenv("DB_HOST"),
		Port:         port,
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		MaxOpenConns: maxOpen,
		MaxIdleConns: maxIdle,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
