package config

import (
	"fmt"

	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Store struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"sqlite"`
	Path        string `env:"STORE_PATH" envDefault:"./data/console.db"`
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string { return s.Driver }

func (s Store) GetStorePath() string { return s.Path }

func (s Store) GetRedisURL() string { return s.RedisURL }

func (s Store) GetDatabaseURL() string { return s.DatabaseURL }

func (s Store) Validate() error {
	switch s.Driver {
	case StoreDriverSQLite:
		if s.Path == "" {
			return &apperrors.ConfigurationError{Field: "STORE_PATH", Err: fmt.Errorf("required for driver %q", s.Driver)}
		}
	case StoreDriverRedis:
		if s.RedisURL == "" {
			return &apperrors.ConfigurationError{Field: "REDIS_URL", Err: fmt.Errorf("required for driver %q", s.Driver)}
		}
	case StoreDriverMemory:
	default:
		return &apperrors.ConfigurationError{Field: "STORE_DRIVER", Err: fmt.Errorf("unknown driver %q", s.Driver)}
	}
	return nil
}
