package config

import (
	"fmt"
)

const (
	PersistencePostgres = "postgres"
	PersistenceInMem    = "inmem"
)

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Persistence string `env:"PERSISTENCE_TYPE" env-default:"postgres"`
	Host        string `env:"IDM_PG_HOST" env-default:"localhost"`
	Port        uint16 `env:"IDM_PG_PORT" env-default:"5432"`
	Database    string `env:"IDM_PG_DATABASE" env-default:"jarvis_db"`
	User        string `env:"IDM_PG_USER" env-default:"jarvis"`
	Password    string `env:"IDM_PG_PASSWORD" env-default:"pwd"`
	Schema      string `env:"IDM_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// Validate checks the persistence settings
func (d DatabaseConfig) Validate() ValidationErrors {
	errs := CollectErrors(
		RequireOneOf("PERSISTENCE_TYPE", d.Persistence, []string{PersistencePostgres, PersistenceInMem}),
	)
	if d.Persistence == PersistencePostgres {
		errs = append(errs, CollectErrors(
			RequireNonEmpty("IDM_PG_HOST", d.Host),
			RequireValidPort("IDM_PG_PORT", d.Port),
			RequireNonEmpty("IDM_PG_DATABASE", d.Database),
		)...)
	}
	return errs
}
