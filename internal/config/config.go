package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SubscriptionConfig describes a single ICS subscription source.
type SubscriptionConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for query matching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label; query expressions match it too.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PreviewConfig enables headless-browser PNG snapshots of one view after
// each refresh cycle.
type PreviewConfig struct {
	// View is the ID of the view to capture ("doc.md#0"). Empty disables
	// preview capture.
	View string `yaml:"view" json:"view"`
	// Path is where the PNG is written.
	Path string `yaml:"path" json:"path"`

	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Europe/Berlin").
	// Empty means the system local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DocsDir is the directory of markdown documents scanned for
	// timelineview blocks.
	DocsDir string `yaml:"docs_dir" json:"docs_dir"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic data refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// RefreshIntervalMs is the legacy settings value carried over from
	// older installations. It is persisted but unused by the core; the
	// schedule is RefreshCron.
	RefreshIntervalMs int `yaml:"refresh_interval_ms" json:"refresh_interval_ms"`

	// CacheDir is the base directory for the ICS fetch cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// ICS is the list of subscribed event sources.
	ICS []SubscriptionConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Preview, if non-nil with a view set, enables PNG snapshots.
	Preview *PreviewConfig `yaml:"preview,omitempty" json:"preview,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "",
		DocsDir:           "./docs",
		RefreshCron:       "*/15 * * * *",
		RefreshIntervalMs: 2500,
		CacheDir:          "",
		LogLevel:          "info",
		ICS:               []SubscriptionConfig{},
		BasicAuth:         nil,
		Preview:           nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DocsDir == "" {
		c.DocsDir = "./docs"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.RefreshIntervalMs <= 0 {
		c.RefreshIntervalMs = 2500
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// ok
	default:
		c.LogLevel = "info"
	}
	if c.ICS == nil {
		c.ICS = []SubscriptionConfig{}
	}
	if c.Preview != nil && c.Preview.View == "" {
		c.Preview = nil
	}
	if c.Preview != nil && c.Preview.Path == "" {
		c.Preview.Path = "./preview.png"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".timelineview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
