package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SourceConfig names an external calendar so that merge and findslotwith
// can refer to it by a short alias instead of a path or URL.
type SourceConfig struct {
	// Name is the alias typed in the shell, e.g. "work".
	Name string `yaml:"name" json:"name" validate:"required"`
	// Location is a file path or an http(s) ICS URL.
	Location string `yaml:"location" json:"location" validate:"required"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataDir is where relative calendar file names are resolved.
	DataDir string `yaml:"data_dir" json:"data_dir" validate:"required"`

	// DefaultFormat is the extension appended to file names typed without
	// one. Supported values: "xml" (default), "ics", "db".
	DefaultFormat string `yaml:"default_format" json:"default_format" validate:"required,format"`

	// WorkStart / WorkEnd bound the window searched by findslot and
	// findslotwith, as HH:mm.
	WorkStart string `yaml:"work_start" json:"work_start" validate:"required,clock"`
	WorkEnd   string `yaml:"work_end" json:"work_end" validate:"required,clock"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info error"`

	// CacheDir stores fetched ICS bodies together with their ETag metadata.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RecurrenceHorizonDays limits how far around today recurring events of
	// imported ICS calendars are flattened.
	RecurrenceHorizonDays int `yaml:"recurrence_horizon_days" json:"recurrence_horizon_days" validate:"gte=1,lte=3650"`

	// Sources are aliases for external calendars.
	Sources []SourceConfig `yaml:"sources" json:"sources" validate:"dive"`
}

const (
	defaultFormat      = "xml"
	defaultWorkStart   = "08:00"
	defaultWorkEnd     = "17:00"
	defaultLogLevel    = "error"
	defaultCacheDir    = "./var/ics-cache"
	defaultHorizonDays = 365
	clockLayout        = "15:04"
)

// Environment variables that override values read from the YAML file.
const (
	EnvDataDir       = "PCAL_DATA_DIR"
	EnvLogLevel      = "PCAL_LOG_LEVEL"
	EnvDefaultFormat = "PCAL_DEFAULT_FORMAT"
	EnvHorizonDays   = "PCAL_RECURRENCE_HORIZON_DAYS"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := registerValidations(validate); err != nil {
		panic(fmt.Sprintf("config: register validations: %v", err))
	}
}

func registerValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("clock", validateClock); err != nil {
		return err
	}
	return v.RegisterValidation("format", validateFormat)
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := time.Parse(clockLayout, fl.Field().String())
	return err == nil
}

func validateFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "xml", "ics", "db":
		return true
	}
	return false
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:               ".",
		DefaultFormat:         defaultFormat,
		WorkStart:             defaultWorkStart,
		WorkEnd:               defaultWorkEnd,
		LogLevel:              defaultLogLevel,
		CacheDir:              defaultCacheDir,
		RecurrenceHorizonDays: defaultHorizonDays,
		Sources:               []SourceConfig{},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	c.DefaultFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.DefaultFormat)), ".")
	if c.DefaultFormat == "" {
		c.DefaultFormat = defaultFormat
	}
	if c.WorkStart == "" {
		c.WorkStart = defaultWorkStart
	}
	if c.WorkEnd == "" {
		c.WorkEnd = defaultWorkEnd
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.RecurrenceHorizonDays <= 0 {
		c.RecurrenceHorizonDays = defaultHorizonDays
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
}

// Validate checks field formats and that the working window is not inverted.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	start, _ := time.Parse(clockLayout, c.WorkStart)
	end, _ := time.Parse(clockLayout, c.WorkEnd)
	if end.Before(start) {
		return fmt.Errorf("invalid config: work_end %s is before work_start %s", c.WorkEnd, c.WorkStart)
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		key := strings.ToLower(s.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("invalid config: duplicate source name %q", s.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ApplyEnv loads an optional .env file next to the working directory and
// lets PCAL_* variables override the file values.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDefaultFormat); v != "" {
		c.DefaultFormat = v
	}
	if v := os.Getenv(EnvHorizonDays); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHorizonDays, err)
		}
		c.RecurrenceHorizonDays = n
	}
	c.Normalize()
	return nil
}

// Source looks up an alias, case-insensitively.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, it is unmarshalled, normalized and validated.
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory when needed.
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

	tmp, err := os.CreateTemp(dir, ".pcal-config-*.tmp")
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
