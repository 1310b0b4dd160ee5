package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ebi/internal/query"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Shelf  ShelfConfig       `yaml:"shelf"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Shelf.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ShelfConfig describes the indexed directory tree and query limits.
type ShelfConfig struct {
	Root          string        `yaml:"root"`
	MaxQueryDepth int           `yaml:"max_query_depth"`
	OpTimeout     time.Duration `yaml:"op_timeout"`
	DefaultOrder  string        `yaml:"default_order"`
	DefaultDesc   bool          `yaml:"default_desc"`
}

// Validate validates the shelf configuration.
func (c *ShelfConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.MaxQueryDepth, validation.Required, validation.Min(1), validation.Max(10000)),
		validation.Field(&c.OpTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.DefaultOrder, validation.Required,
			validation.In("name", "size", "modified", "created", "accessed", "unordered")),
	)
}

// Order returns the configured default result ordering.
func (c *ShelfConfig) Order() query.Order {
	k, err := query.ParseKey(c.DefaultOrder)
	if err != nil {
		k = query.ByName
	}
	return query.Order{Key: k, Desc: c.DefaultDesc}
}

// SQLiteConfig holds the path of the tag catalog database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Shelf: ShelfConfig{
			Root:          ".",
			MaxQueryDepth: 256,
			OpTimeout:     5 * time.Second,
			DefaultOrder:  "name",
		},
		SQLite: SQLiteConfig{
			Path: "./ebi.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
