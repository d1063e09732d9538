package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver          string `env:"DB_DRIVER"                envDefault:"postgres"`
	Host            string `env:"DB_HOST"                  envDefault:"postgres"`
	Port            int    `env:"DB_PORT"                  envDefault:"5432"`
	User            string `env:"DB_USER"                  envDefault:"mci"`
	Password        string `env:"DB_PASSWORD"              envDefault:"mci"`
	Name            string `env:"DB_NAME"                  envDefault:"mci_db"`
	SSLMode         string `env:"DB_SSLMODE"               envDefault:"disable"`
	TimeZone        string `env:"DB_TIMEZONE"              envDefault:"UTC"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS"        envDefault:"10"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS"        envDefault:"5"`
	ConnMaxLifeTime int    `env:"DB_CONN_MAX_LIFETIME_MIN" envDefault:"30"` // минут

	// Файл базы для локального режима (DB_DRIVER=sqlite).
	SQLitePath string `env:"SQLITE_PATH" envDefault:"mci.db"`
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate — минимальная валидация.
func (c *DBConfig) Validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.User == "" || c.Name == "" {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("invalid DB config: SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("invalid DB config: unknown driver %q", c.Driver)
	}
	return nil
}
