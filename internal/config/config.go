// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const ServiceVersion = "0.1.0"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	TransportLog   = "log"
	TransportStan  = "stan"
	TransportKafka = "kafka"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string
	Debug       bool

	Store       string
	DatabaseURL string

	NotifyTransport string
	StanClusterID   string
	StanClientID    string
	NatsURL         string
	NotifySubject   string
	KafkaBroker     string
	NotifyTopic     string

	OtelEndpoint   string
	OtelAuthHeader string
	OtelInsecure   bool

	ShutdownTimeout time.Duration
}

// Load reads the environment and rejects combinations that cannot start.
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getenvDefault("SERVICE_NAME", "checkout"),
		Env:         getenvDefault("ENV", "dev"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		LogFile:     os.Getenv("LOG_FILE"),
		Debug:       getenvBool("DEBUG"),

		Store:       getenvDefault("STORE", StoreMemory),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		NotifyTransport: getenvDefault("NOTIFY_TRANSPORT", TransportLog),
		StanClusterID:   getenvDefault("STAN_CLUSTER_ID", "checkout-cluster"),
		StanClientID:    os.Getenv("STAN_CLIENT_ID"),
		NatsURL:         getenvDefault("NATS_URL", "nats://localhost:4222"),
		NotifySubject:   getenvDefault("NOTIFY_SUBJECT", "order.placed"),
		KafkaBroker:     os.Getenv("KAFKA_BROKER"),
		NotifyTopic:     getenvDefault("NOTIFY_TOPIC", "OrderPlaced"),

		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
		OtelInsecure:   getenvBool("OTEL_INSECURE"),

		ShutdownTimeout: 10 * time.Second,
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required when STORE=%s", StorePostgres)
		}
	default:
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.Store)
	}

	switch cfg.NotifyTransport {
	case TransportLog, TransportStan:
	case TransportKafka:
		if cfg.KafkaBroker == "" {
			return nil, fmt.Errorf("KAFKA_BROKER environment variable is required when NOTIFY_TRANSPORT=%s", TransportKafka)
		}
	default:
		return nil, fmt.Errorf("NOTIFY_TRANSPORT must be one of log, stan, kafka, got %q", cfg.NotifyTransport)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
