package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnv убирает переменные на время теста и возвращает их после.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		key := key
		old, had := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "DB_DRIVER", "CORE_GRPC_ADDR", "CAMP_CAPACITY_POLICY", "LOGIN_MAX_ATTEMPTS", "LOGIN_WINDOW")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != DriverPostgres {
		t.Fatalf("driver = %q, want %q", cfg.DB.Driver, DriverPostgres)
	}
	if cfg.GRPCAddr != ":50051" {
		t.Fatalf("grpc addr = %q, want :50051", cfg.GRPCAddr)
	}
	if cfg.CampCapacityPolicy != "professionals" {
		t.Fatalf("policy = %q, want professionals", cfg.CampCapacityPolicy)
	}
	if cfg.Login.MaxAttempts != 5 || cfg.Login.Window != 15*time.Minute {
		t.Fatalf("login = %+v, want 5 attempts per 15m", cfg.Login)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=sqlite\nSQLITE_PATH=/tmp/mci-test.db\nKAFKA_BROKERS=k1:9092,k2:9092\nLOGIN_WINDOW=1m\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	unsetEnv(t, "DB_DRIVER", "SQLITE_PATH", "KAFKA_BROKERS", "LOGIN_WINDOW")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite || cfg.DB.SQLitePath != "/tmp/mci-test.db" {
		t.Fatalf("db = %+v, want sqlite at /tmp/mci-test.db", cfg.DB)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}
	if cfg.Login.Window != time.Minute {
		t.Fatalf("window = %v, want 1m", cfg.Login.Window)
	}
}

func TestLoadDBConfig_Validation(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	if _, err := LoadDBConfig(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	t.Setenv("DB_DRIVER", "oracle")
	if _, err := LoadDBConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestValidate_PostgresRequiresHost(t *testing.T) {
	cfg := DBConfig{Driver: "postgres", User: "u", Name: "n"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty host")
	}
}
