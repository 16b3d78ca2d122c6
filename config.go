package iq

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"hermannm.dev/wrap"
)

// Config defines the configuration for the client.
type Config struct {
	// Endpoint is the URL of the TestCenter IQ results service, e.g.
	// "http://192.0.2.10:9199". May be left empty when a Session is
	// attached; the URL is then resolved from the live test session.
	Endpoint string `env:"IQ_ENDPOINT"`
	// QueryDefinitionsPath points to a JSON file of saved view queries,
	// overriding the catalog bundled with the library.
	QueryDefinitionsPath string `env:"IQ_QUERY_DEFINITIONS"`
	// Session optionally attaches the client to a live test session.
	Session Session `env:"-"`
}

// Session is a live test session that produces results databases. It is
// supplied by the host automation framework.
type Session interface {
	// ResultURL returns the URL of the session's results service.
	ResultURL() (string, error)
	// ResultDatabaseID returns the ID of the session's results database.
	ResultDatabaseID() (string, error)
}

// ConfigFromEnv reads the client configuration from the environment,
// loading a .env file first when one is present.
func ConfigFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, wrap.Error(err, "failed to load .env file")
	}

	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, wrap.Error(err, "failed to parse client config from env")
	}
	return &config, nil
}
