// Package config loads ~/.config/shopline/config.yaml with SHOPLINE_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/shopline/internal/constants"
	"github.com/julianstephens/shopline/internal/locale"
	"github.com/julianstephens/shopline/internal/timerange"
	"github.com/julianstephens/shopline/internal/utils"
)

const defaultConfigYAML = `# shopline configuration

# Where schedules live: an http(s):// service URL, a SQLite file path,
# a postgres:// connection string without password, or "keyring" to read
# the connection string from the OS keyring.
backend: ~/.config/shopline/shopline.db

timezone: Local
locale: en
# Leave empty to follow the locale (sun, mon, ...)
week_start: ""

default_view: Day
group_by: none
color_mode: product

# Per-request timeout, 0 waits indefinitely
request_timeout: 0s
debug: false
`

// BackendKind is the kind of store behind the backend setting
type BackendKind string

const (
	BackendHTTP     BackendKind = "http"
	BackendSQLite   BackendKind = "sqlite"
	BackendPostgres BackendKind = "postgres"
	BackendKeyring  BackendKind = "keyring"
)

type Config struct {
	Backend        string        `mapstructure:"backend"`
	Timezone       string        `mapstructure:"timezone"`
	Locale         string        `mapstructure:"locale"`
	WeekStart      string        `mapstructure:"week_start"`
	DefaultView    string        `mapstructure:"default_view"`
	GroupBy        string        `mapstructure:"group_by"`
	ColorMode      string        `mapstructure:"color_mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Debug          bool          `mapstructure:"debug"`

	// Path is the file the config was read from, empty when none existed
	Path string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", constants.DefaultLocalDB)
	v.SetDefault("timezone", "Local")
	v.SetDefault("locale", "en")
	v.SetDefault("week_start", "")
	v.SetDefault("default_view", string(constants.GranularityDay))
	v.SetDefault("group_by", string(constants.GroupNone))
	v.SetDefault("color_mode", string(constants.ColorByProduct))
	v.SetDefault("request_timeout", time.Duration(0))
	v.SetDefault("debug", false)
}

// Load reads path, or the default config file when path is empty. A
// missing file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = filepath.Join(ExpandHome(constants.DefaultConfigDir), constants.DefaultConfigFile)
	}
	path = ExpandHome(path)
	v.SetConfigFile(path)

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		cfg.Path = path
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Backend = ExpandHome(cfg.Backend)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enumerated setting
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q in config", c.Timezone)
	}
	if _, err := timerange.ParseGranularity(c.DefaultView); err != nil {
		return fmt.Errorf("invalid default_view: %w", err)
	}
	if _, err := ParseGroupMode(c.GroupBy); err != nil {
		return err
	}
	if _, err := ParseColorMode(c.ColorMode); err != nil {
		return err
	}
	if c.WeekStart != "" {
		if _, err := locale.ParseWeekday(c.WeekStart); err != nil {
			return fmt.Errorf("invalid week_start: %w", err)
		}
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout cannot be negative")
	}
	if strings.TrimSpace(c.Backend) == "" {
		return errors.New("backend cannot be empty")
	}
	return nil
}

// BackendKind classifies the backend setting
func (c *Config) BackendKind() BackendKind {
	b := strings.TrimSpace(c.Backend)
	switch {
	case strings.HasPrefix(b, "http://"), strings.HasPrefix(b, "https://"):
		return BackendHTTP
	case strings.HasPrefix(b, "postgres://"), strings.HasPrefix(b, "postgresql://"):
		return BackendPostgres
	case b == string(BackendKeyring):
		return BackendKeyring
	default:
		return BackendSQLite
	}
}

// ResolvedLocale applies the week_start override to the configured locale
func (c *Config) ResolvedLocale() locale.Locale {
	loc := locale.Resolve(c.Locale)
	if c.WeekStart != "" {
		if wd, err := locale.ParseWeekday(c.WeekStart); err == nil {
			loc = loc.WithWeekStart(wd)
		}
	}
	return loc
}

func (c *Config) Granularity() constants.Granularity {
	g, err := timerange.ParseGranularity(c.DefaultView)
	if err != nil {
		return constants.GranularityDay
	}
	return g
}

func (c *Config) Group() constants.GroupMode {
	g, _ := ParseGroupMode(c.GroupBy)
	return g
}

func (c *Config) Color() constants.ColorMode {
	m, _ := ParseColorMode(c.ColorMode)
	return m
}

// ParseGroupMode accepts none, order and equipment_group (or equipment-group)
func ParseGroupMode(s string) (constants.GroupMode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", "none", "flat":
		return constants.GroupNone, nil
	case "order":
		return constants.GroupOrder, nil
	case "equipment_group", "equipment":
		return constants.GroupEquipmentGroup, nil
	}
	return constants.GroupNone, fmt.Errorf("invalid group mode %q (expected none, order or equipment_group)", s)
}

// ParseColorMode accepts product and process
func ParseColorMode(s string) (constants.ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "product":
		return constants.ColorByProduct, nil
	case "process":
		return constants.ColorByProcess, nil
	}
	return constants.ColorByProduct, fmt.Errorf("invalid color mode %q (expected product or process)", s)
}

// WriteDefault creates a commented default config at path unless one exists
func WriteDefault(path string) (bool, error) {
	path = ExpandHome(path)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Dir is the directory holding config, logs and backups
func Dir() string {
	return ExpandHome(constants.DefaultConfigDir)
}
