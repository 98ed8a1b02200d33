// Package config loads the itfmaker settings file: where the application
// keeps its journal, the IRBIS work directory import files go to, the watched
// inbox, administrative codes and log settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/olgyan/IrbisTextFileMaker/internal/logging"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "ITFMAKER_CONFIG"

// FileName is the config file name inside the application directory.
const FileName = "config.yaml"

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the itfmaker settings file.
type Config struct {
	AppDir  string `yaml:"app_dir"`
	WorkDir string `yaml:"work_dir"`

	// Journal is the SQLite file holding the current batch.
	Journal string `yaml:"journal"`
	// Inbox is the directory watched for citation files.
	Inbox string `yaml:"inbox"`
	// CodesFile optionally overrides the built-in role and genre tables.
	CodesFile string `yaml:"codes_file,omitempty"`

	Origin   string `yaml:"origin"`
	Operator string `yaml:"operator"`

	Log LogConfig `yaml:"log"`
}

// Default returns the settings for the running operating system.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return defaultFor(runtime.GOOS, home)
}

func defaultFor(goos, home string) *Config {
	appDir, workDir := dirsFor(goos, home)
	return &Config{
		AppDir:   appDir,
		WorkDir:  workDir,
		Journal:  filepath.Join(appDir, "journal.db"),
		Inbox:    filepath.Join(workDir, "inbox"),
		Origin:   "ПК",
		Operator: "itfmaker",
		Log:      LogConfig{Level: "warn", Format: "text"},
	}
}

// dirsFor returns the application and IRBIS work directories. Unknown
// systems get empty paths, which resolve against the current directory.
func dirsFor(goos, home string) (string, string) {
	switch goos {
	case "linux":
		if home == "" {
			return "", ""
		}
		return filepath.Join(home, ".local", "share", "itfmaker"), filepath.Join(home, "irbiswrk")
	case "windows":
		return `C:\itfmaker`, `C:\irbiswrk`
	default:
		return "", ""
	}
}

// Path picks the config file: the explicit flag value, then EnvConfig, then
// FileName in the default application directory.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return filepath.Join(Default().AppDir, FileName)
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the settings to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Origin == "" {
		errs = append(errs, errors.New("origin is required"))
	}
	if c.Operator == "" {
		errs = append(errs, errors.New("operator is required"))
	}
	if c.Journal == "" {
		errs = append(errs, errors.New("journal is required"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	return errors.Join(errs...)
}

// LogSettings returns the parsed log level and format. Invalid values fall
// back to info and text.
func (c *Config) LogSettings() (level logging.Level, format logging.Format) {
	level, _ = logging.ParseLevel(c.Log.Level)
	format, _ = logging.ParseFormat(c.Log.Format)
	return level, format
}
