package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Simulation settings.
	GridAge         float64
	TickInterval    time.Duration
	ConnectDelay    time.Duration
	HistoryCapacity int
	RandomSeed      uint64
	PublishTimeout  time.Duration

	// Presentation sinks.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	WSEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	gridAge, err := parseGridAge()
	if err != nil {
		return nil, err
	}

	tickInterval, err := parsePositiveDuration("TICK_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	connectDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("CONNECT_DELAY", "2s"))
	if err != nil || connectDelay < 0 {
		return nil, errors.New("invalid CONNECT_DELAY")
	}

	publishTimeout, err := parsePositiveDuration("PUBLISH_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}

	capacity, err := parseHistoryCapacity()
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("RANDOM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid RANDOM_SEED")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GridAge:         gridAge,
		TickInterval:    tickInterval,
		ConnectDelay:    connectDelay,
		HistoryCapacity: capacity,
		RandomSeed:      seed,
		PublishTimeout:  publishTimeout,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "cyclone-risk-updates"),
		WSEnabled:    os.Getenv("WS_ENABLED") != "false",
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parseGridAge() (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GRID_AGE", "25"), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 100 {
		return 0, errors.New("invalid GRID_AGE: must be a number of years in [0, 100]")
	}
	return v, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseHistoryCapacity() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("HISTORY_CAPACITY", "60"))
	if err != nil || n < 1 || n > 3600 {
		return 0, errors.New("invalid HISTORY_CAPACITY: must be between 1 and 3600")
	}
	return n, nil
}
