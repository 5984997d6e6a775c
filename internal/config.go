package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notepress/internal/ignore"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/redisstore"
	"github.com/starford/notepress/internal/render"
	"github.com/starford/notepress/internal/sanitize"
	"github.com/starford/notepress/internal/watch"
)

// Manifest drivers.
const (
	ManifestDriverFile   = "file"
	ManifestDriverSQLite = "sqlite"
	ManifestDriverRedis  = "redis"
)

var routeRe = regexp.MustCompile(`^/[^\s]*$`)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Output   OutputConfig      `yaml:"output"`
	Manifest ManifestConfig    `yaml:"manifest"`
	Pipeline PipelineConfig    `yaml:"pipeline"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.Manifest.Validate(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return c.Watch.Validate()
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

// VaultConfig holds the vault directory and the folders published from it.
type VaultConfig struct {
	Path    string                `yaml:"path"`
	Folders []models.FolderConfig `yaml:"folders"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Folders, validation.Required, validation.By(validateFolders)),
	)
}

func validateFolders(value any) error {
	folders, _ := value.([]models.FolderConfig)
	for i, f := range folders {
		if f.RouteBase != "" && !routeRe.MatchString(f.RouteBase) {
			return fmt.Errorf("folder %d: route_base %q must start with / and contain no spaces", i, f.RouteBase)
		}
	}
	return nil
}

// OutputConfig describes the generated site.
//
// AssetsRoute is the URL prefix embedded files are linked under; copied
// assets land in the matching directory of Path.
type OutputConfig struct {
	Path        string `yaml:"path"`
	AssetsRoute string `yaml:"assets_route"`
	SiteTitle   string `yaml:"site_title"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.AssetsRoute, validation.Required, validation.Match(routeRe)),
	)
}

// ManifestConfig selects where the manifest and folder indexes live.
//
// Driver controls the backend:
//   - "file" (default): JSON documents inside the output directory.
//   - "sqlite": a SQLite database at SQLitePath, which also enables search.
//   - "redis": a Redis server; Redis.Addr must be set.
type ManifestConfig struct {
	Driver     string      `yaml:"driver"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

// Validate validates the manifest configuration.
func (c *ManifestConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = ManifestDriverFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(ManifestDriverFile, ManifestDriverSQLite, ManifestDriverRedis)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == ManifestDriverSQLite, validation.Required)),
		validation.Field(&c.Redis, validation.When(c.Driver == ManifestDriverRedis, validation.By(func(any) error {
			return c.Redis.Validate()
		}))),
	)
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
	)
}

// PipelineConfig holds the note processing rules.
type PipelineConfig struct {
	IgnoreRules []ignore.Rule   `yaml:"ignore_rules"`
	Sanitize    sanitize.Config `yaml:"sanitize"`
}

// Validate validates the pipeline configuration.
func (c *PipelineConfig) Validate() error {
	for i, r := range c.IgnoreRules {
		if r.Property == "" {
			return fmt.Errorf("ignore_rules[%d]: property is required", i)
		}
		if r.IgnoreIf == nil && len(r.IgnoreValues) == 0 {
			return fmt.Errorf("ignore_rules[%d]: one of ignore_if or ignore_values is required", i)
		}
	}
	for _, r := range c.Sanitize.Rules {
		if r.Name == "" {
			return errors.New("sanitize: rule name is required")
		}
		if !r.Enabled {
			continue
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("sanitize: rule %q: invalid pattern: %w", r.Name, err)
		}
	}
	return nil
}

// WatchConfig controls republishing on vault changes.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
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
		Vault: VaultConfig{
			Path:    "./vault",
			Folders: []models.FolderConfig{{VaultFolder: "", RouteBase: "/"}},
		},
		Output: OutputConfig{
			Path:        "./site",
			AssetsRoute: render.DefaultAssetsRoute,
			SiteTitle:   "notepress",
		},
		Manifest: ManifestConfig{
			Driver:     ManifestDriverFile,
			SQLitePath: "./notepress.db",
			Redis: RedisConfig{
				Prefix: redisstore.DefaultPrefix,
			},
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: watch.DefaultDebounce,
		},
	}
}
