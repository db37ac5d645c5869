package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Notifier  NotifierConfig
	Events    EventsConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type SchedulerConfig struct {
	Interval time.Duration
}

type NotifierConfig struct {
	URL     string
	From    string
	Timeout time.Duration
}

type EventsConfig struct {
	Enabled bool
	AMQPURL string
	Queue   string
}

func LoadAll() (*Config, error) {
	postgresURL, err := mustEnv("POSTGRES_URL")
	if err != nil {
		return nil, err
	}
	notifyURL, err := mustEnv("NOTIFY_WEBHOOK_URL")
	if err != nil {
		return nil, err
	}

	intervalSec, err := getEnvInt("SCHED_INTERVAL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	notifyTimeoutSec, err := getEnvInt("NOTIFY_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: postgresURL,
		},
		Notifier: NotifierConfig{
			URL:     notifyURL,
			From:    getEnv("NOTIFY_FROM", "noreply@accountflow.com"),
			Timeout: time.Duration(notifyTimeoutSec) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval: time.Duration(intervalSec) * time.Second,
		},
		Redis: redisCfg,
		Events: EventsConfig{
			Enabled: os.Getenv("AMQP_URL") != "",
			AMQPURL: os.Getenv("AMQP_URL"),
			Queue:   getEnv("AMQP_QUEUE", "document-events"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}
	ttlSec, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttlSec) * time.Second,
	}, nil
}

func validate(cfg *Config) error {
	if cfg.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHED_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Notifier.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}

func mustEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}
