package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gorm.io/gorm/logger"
)

type Config struct {
	Env        string `env:"ENV" envDefault:"dev"`
	Addr       string `env:"ADDR" envDefault:":8080"`
	DSN        string `env:"DATABASE_DSN" envDefault:"ministry.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"`
	DBLogLevel string `env:"DB_LOG_LEVEL" envDefault:"warn"`
	QRSize     int    `env:"QR_SIZE" envDefault:"256"`

	// Participant phone numbers in local form take this country code.
	CountryCode string `env:"PHONE_COUNTRY_CODE" envDefault:"62"`
	// Timezone for exported timestamps.
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Jakarta"`
}

// Load reads an optional .env file (".env.<env>" first, then ".env") and
// parses the environment into a Config.
func Load() (Config, error) {
	name := strings.ToLower(os.Getenv("ENV"))
	for _, path := range []string{".env." + name, ".env"} {
		if name == "" && path == ".env." {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return Config{}, errors.Wrapf(err, "load %s", path)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "stat %s", path)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 256
	}
	return cfg, nil
}

// GormLogLevel maps DB_LOG_LEVEL onto gorm's logger levels.
func (c Config) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(c.DBLogLevel) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
