package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Every field can be
// overridden by the corresponding CLI flag.
type Config struct {
	// BeforeDays / AfterDays bound the sync window around now.
	BeforeDays int `yaml:"before_days" json:"before_days"`
	AfterDays  int `yaml:"after_days" json:"after_days"`

	// Destination is the display name (account email) of the store whose
	// Calendar folder receives copied events. Required.
	Destination string `yaml:"destination" json:"destination"`

	// DryRun reports what would be created without writing anything.
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// ExtraFolders are folder names besides "Calendar" treated as
	// calendar sources (exact, case-sensitive match).
	ExtraFolders []string `yaml:"extra_folders" json:"extra_folders"`

	// Exclusions are substrings matched case-insensitively against
	// folder names; matching folders are not used as sources.
	Exclusions []string `yaml:"exclusions" json:"exclusions"`

	// Verbose enables the debug diagnostic stream on stderr.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Abbreviate shortens copied subjects to a tag + fragment form.
	Abbreviate bool `yaml:"abbreviate" json:"abbreviate"`

	// CalendarDir is the directory of per-store .ics files used by the
	// bundled file-backed provider.
	CalendarDir string `yaml:"calendar_dir" json:"calendar_dir"`

	// Schedule is the cron spec used by the daemon command.
	Schedule string `yaml:"schedule" json:"schedule"`

	// MatchPolicy selects duplicate detection: "subject" or
	// "subject-time".
	MatchPolicy string `yaml:"match_policy" json:"match_policy"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		BeforeDays:  1,
		AfterDays:   7,
		Exclusions:  []string{"Public Folders", "Shared"},
		CalendarDir: "calendars",
		Schedule:    "*/30 * * * *",
		MatchPolicy: "subject-time",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.BeforeDays <= 0 {
		c.BeforeDays = 1
	}
	if c.AfterDays <= 0 {
		c.AfterDays = 7
	}
	if c.Exclusions == nil {
		c.Exclusions = []string{"Public Folders", "Shared"}
	}
	if c.ExtraFolders == nil {
		c.ExtraFolders = []string{}
	}
	if c.CalendarDir == "" {
		c.CalendarDir = "calendars"
	}
	if c.Schedule == "" {
		c.Schedule = "*/30 * * * *"
	}
	switch c.MatchPolicy {
	case "subject", "subject-time":
	default:
		c.MatchPolicy = "subject-time"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory if needed,
//     write a default config with 0600 perms, and return the defaults.
//   - If the file exists: read YAML, unmarshal and normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
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

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
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

	tmp, err := os.CreateTemp(dir, ".calsync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
