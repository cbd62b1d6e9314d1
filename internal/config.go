package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store backends.
const (
	StoreBackendFS   = "fs"
	StoreBackendIPFS = "ipfs"
)

// Denylist backends.
const (
	DenylistBackendSQLite = "sqlite"
	DenylistBackendMongo  = "mongo"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Denylist DenylistConfig    `yaml:"denylist"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Denylist.Validate(); err != nil {
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

// StoreConfig selects where listings are kept.
//
// Path always holds the journal. With the fs backend the objects live under
// Path/objects; with ipfs they are added to the daemon at IPFS.Host.
type StoreConfig struct {
	Backend string     `yaml:"backend"`
	Path    string     `yaml:"path"`
	Watch   bool       `yaml:"watch"`
	IPFS    IPFSConfig `yaml:"ipfs"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = StoreBackendFS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(StoreBackendFS, StoreBackendIPFS)),
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	if c.Backend == StoreBackendIPFS {
		return c.IPFS.Validate()
	}
	return nil
}

// IPFSConfig holds the IPFS daemon API address.
type IPFSConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the IPFS configuration.
func (c *IPFSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// DenylistConfig selects the moderation repository.
type DenylistConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Mongo   MongoConfig  `yaml:"mongo"`
}

// Validate validates the denylist configuration.
func (c *DenylistConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = DenylistBackendSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(DenylistBackendSQLite, DenylistBackendMongo)),
	); err != nil {
		return err
	}
	if c.Backend == DenylistBackendMongo {
		return c.Mongo.Validate()
	}
	return c.SQLite.Validate()
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Validate validates the MongoDB configuration.
func (c *MongoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URI, validation.Required),
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.Collection, validation.Required),
	)
}

// AuthConfig holds moderator authentication configuration.
//
// Mode controls how denylist mutations are guarded:
//   - "disabled" (default): anyone may moderate, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
				Port: 5001,
			},
		},
		Store: StoreConfig{
			Backend: StoreBackendFS,
			Path:    "./data/log",
			Watch:   true,
			IPFS: IPFSConfig{
				Host:    "localhost:5001",
				Timeout: 10 * time.Second,
			},
		},
		Denylist: DenylistConfig{
			Backend: DenylistBackendSQLite,
			SQLite: SQLiteConfig{
				Path: "./torlist.db",
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "tor-list",
				Collection: "blacklists",
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
