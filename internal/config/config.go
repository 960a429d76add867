// Package config centralises runtime configuration for the sync job.
// Values come from the environment (optionally seeded from a .env file in the
// working directory), with defaults suitable for the standing deployment.
// Components never read ambient process state directly; they receive a
// validated *Config at construction time.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata" // qualification window math needs IANA zones everywhere

	"github.com/spf13/viper"
)

// Environment keys. The BEEMINDER_* names match the original deployment's
// .env contract; MEDSYNC_* keys are local to this service.
const (
	keyUsername    = "BEEMINDER_USERNAME"
	keyAuthToken   = "BEEMINDER_AUTH_TOKEN"
	keyTargetGoal  = "BEEMINDER_GOAL_SLUG"
	keySourceGoal  = "BEEMINDER_SOURCE_GOAL_SLUG"
	keyStorePath   = "MEDSYNC_STORE_PATH"
	keyHistoryDB   = "MEDSYNC_HISTORY_DB"
	keyTimezone    = "MEDSYNC_TIMEZONE"
	keyHTTPPort    = "MEDSYNC_HTTP_PORT"
	keyAPIToken    = "MEDSYNC_API_TOKEN"
	keyLogLevel    = "MEDSYNC_LOG_LEVEL"
	keyHTTPTimeout = "MEDSYNC_HTTP_TIMEOUT"
)

// ErrMissingAuthToken aborts the run before any network call is made.
var ErrMissingAuthToken = errors.New("BEEMINDER_AUTH_TOKEN not set in environment")

// Config is the explicit configuration passed into each component.
type Config struct {
	Username   string
	AuthToken  string
	TargetGoal string // goal receiving derived "early meditation" datapoints
	SourceGoal string // goal scanned for qualifying meditations

	StorePath     string // local JSON source-of-truth file
	HistoryDBPath string // sqlite run-history file

	Timezone    string // civil timezone for the qualification window
	HTTPPort    string // api binary listen port
	APIToken    string // static bearer token for protected endpoints; empty disables auth
	LogLevel    string
	HTTPTimeout time.Duration // outbound request timeout for the Beeminder client

	loc *time.Location
}

// Load reads the optional .env file and the environment, applies defaults,
// and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		// A missing .env is fine; everything can come from the environment.
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}
	v.AutomaticEnv()

	v.SetDefault(keyUsername, "zarathustra")
	v.SetDefault(keyTargetGoal, "meditate-early")
	v.SetDefault(keySourceGoal, "meditatev4")
	v.SetDefault(keyStorePath, "data/meditation_sot.json")
	v.SetDefault(keyHistoryDB, "data/medsync.db")
	v.SetDefault(keyTimezone, "America/New_York")
	v.SetDefault(keyHTTPPort, "8080")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyHTTPTimeout, "30s")

	cfg := &Config{
		Username:      v.GetString(keyUsername),
		AuthToken:     v.GetString(keyAuthToken),
		TargetGoal:    v.GetString(keyTargetGoal),
		SourceGoal:    v.GetString(keySourceGoal),
		StorePath:     v.GetString(keyStorePath),
		HistoryDBPath: v.GetString(keyHistoryDB),
		Timezone:      v.GetString(keyTimezone),
		HTTPPort:      v.GetString(keyHTTPPort),
		APIToken:      v.GetString(keyAPIToken),
		LogLevel:      v.GetString(keyLogLevel),
		HTTPTimeout:   v.GetDuration(keyHTTPTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and resolves the civil timezone.
func (c *Config) Validate() error {
	if c.AuthToken == "" {
		return ErrMissingAuthToken
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	c.loc = loc
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	return nil
}

// Location returns the resolved civil timezone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		c.loc, _ = time.LoadLocation("America/New_York")
	}
	return c.loc
}
