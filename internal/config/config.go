package config

import (
	"errors"
	"fmt"
	"io/fs"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultLockKey identifies the advisory lock serialising cost basis runs.
const DefaultLockKey int64 = 0x6c65646765720001

// MinOpenConns is the smallest pool a locked compute run can make progress
// with: the advisory lock pins one connection, the transaction cursor holds
// a second and each stored entry begins its transaction on a third.
const MinOpenConns = 3

type Config struct {
	DatabaseURL   string `env:"DATABASE_URL,required"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv        string `env:"APP_ENV" envDefault:"production"`
	ReadBatchSize int    `env:"READ_BATCH_SIZE" envDefault:"100"`
	LockKey       int64  `env:"LEDGER_LOCK_KEY" envDefault:"7810759523990372353"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

// Load reads an optional .env file from the working directory, then the
// process environment. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.ReadBatchSize <= 0 {
		return nil, fmt.Errorf("config.Load: READ_BATCH_SIZE must be positive, got %d", cfg.ReadBatchSize)
	}
	if cfg.DBMaxOpenConns > 0 && cfg.DBMaxOpenConns < MinOpenConns {
		return nil, fmt.Errorf("config.Load: DB_MAX_OPEN_CONNS must be at least %d, got %d", MinOpenConns, cfg.DBMaxOpenConns)
	}
	return &cfg, nil
}
