package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL,required"`
	SystemUserID  uuid.UUID     `env:"SYSTEM_USER_ID,required"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	JWTExpiry     time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port          int           `env:"PORT" envDefault:"8080"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv        string        `env:"APP_ENV" envDefault:"production"`
	MigrationsDir string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	RunMigrations bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	HistoryDefaultLimit int `env:"HISTORY_DEFAULT_LIMIT" envDefault:"50"`
	LedgerDefaultLimit  int `env:"LEDGER_DEFAULT_LIMIT" envDefault:"100"`
	MaxPageLimit        int `env:"MAX_PAGE_LIMIT" envDefault:"500"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.SystemUserID == uuid.Nil {
		return nil, fmt.Errorf("config.Load: SYSTEM_USER_ID must not be the nil uuid")
	}
	return &cfg, nil
}
