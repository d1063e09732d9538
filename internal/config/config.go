package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config — настройки процесса ядра.
type Config struct {
	DB DBConfig

	GRPCAddr    string `env:"CORE_GRPC_ADDR" envDefault:":50051"`
	MetricsAddr string `env:"METRICS_ADDR"   envDefault:":9090"`

	// professionals | combined
	CampCapacityPolicy string `env:"CAMP_CAPACITY_POLICY" envDefault:"professionals"`

	Login LoginConfig
	Kafka KafkaConfig

	// Пусто — трассировка выключена.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoginConfig — ограничение попыток входа. Без REDIS_ADDR счётчики живут в памяти процесса.
type LoginConfig struct {
	RedisAddr   string        `env:"REDIS_ADDR"`
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"LOGIN_WINDOW"       envDefault:"15m"`
}

// KafkaConfig — публикация изменений. Без брокеров публикация выключена.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC"   envDefault:"mci.changes"`
}

// Load читает .env (если есть) и переменные окружения.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}
	if cfg.Login.MaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid login config: LOGIN_MAX_ATTEMPTS must be positive")
	}
	if cfg.Login.Window <= 0 {
		return nil, fmt.Errorf("invalid login config: LOGIN_WINDOW must be positive")
	}
	return cfg, nil
}
