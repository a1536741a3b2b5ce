package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	BackendConfig
	StoreConfig
	CorsConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// BackendConfig describes how to reach the hosted identity/data backend.
type BackendConfig interface {
	GetBackendURL() string
	GetBackendAnonKey() string
	GetVerifyJWKS() bool
	GetRefreshInterval() time.Duration
	GetRequestTimeout() time.Duration
}

// StoreConfig selects the persisted local store driver.
type StoreConfig interface {
	GetStoreDriver() string
	GetStorePath() string
	GetRedisURL() string
	GetDatabaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Backend
	Store
	Cors
}

// New parses the process environment.
func New() (Config, error) {
	c := mainConfig{}
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "[config.New] parse env")
	}
	return c, nil
}

// Validate reports the first configuration problem that makes the console unusable.
func (c mainConfig) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	return c.Store.Validate()
}
