package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"taskhub/internal/aggregator"
	"taskhub/internal/gateway"
	"taskhub/pkg/circuitbreaker"
	"taskhub/pkg/config"
)

// SessionConfig bounds how long a resolved session is kept
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type Config struct {
	Server     config.ServerConfig `yaml:"server"`
	Gateway    gateway.Config      `yaml:"gateway"`
	Aggregator aggregator.Config   `yaml:"aggregator"`
	Session    SessionConfig       `yaml:"session"`
	DB         config.DBConfig     `yaml:"db"`
	Redis      config.RedisConfig  `yaml:"redis"`
	MQ         config.MQConfig     `yaml:"mq"`
	Otel       config.OtelConfig   `yaml:"otel"`
	Log        config.LogConfig    `yaml:"log"`
}

// Default is used for anything base.yaml leaves out
func Default() Config {
	return Config{
		Server: config.ServerConfig{Port: ":8080", ShutdownTimeout: 10 * time.Second},
		Gateway: gateway.Config{
			BaseURL:   "http://localhost:5000",
			Timeout:   10 * time.Second,
			DoneLabel: "Completed",
			Breaker:   circuitbreaker.DefaultConfig(),
		},
		Aggregator: aggregator.Config{FanOutLimit: 8},
		Session:    SessionConfig{TTL: 24 * time.Hour},
		MQ:         config.MQConfig{Exchange: "taskhub.events"},
		Otel:       config.OtelConfig{ServiceName: "taskhub"},
		Log:        config.LogConfig{Level: "info"},
	}
}

// Load reads <dir>/base.yaml plus the CONFIG_ENV overlay, then applies
// environment overrides
func Load(dir string) (*Config, error) {
	cfg := Default()
	if err := config.Load(config.GetConfigEnv(), dir, &cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideOtelFromEnv(&cfg.Otel)
	config.OverrideLogFromEnv(&cfg.Log)

	if url := os.Getenv("GATEWAY_URL"); url != "" {
		cfg.Gateway.BaseURL = url
	}
	if label := os.Getenv("GATEWAY_DONE_LABEL"); label != "" {
		cfg.Gateway.DoneLabel = label
	}
	if v := os.Getenv("FAN_OUT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid FAN_OUT_LIMIT %q", v)
		}
		cfg.Aggregator.FanOutLimit = n
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.Session.TTL = d
	}
	return nil
}
