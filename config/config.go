// Package config loads json-casegate settings.
//
// Settings are layered, later layers winning:
//  1. built-in defaults
//  2. a config file (.jsoncase.toml, .jsoncase.yaml, .jsoncase.yml or .jsoncase.json)
//  3. JSONCASE_* environment variables (log.level -> JSONCASE_LOG_LEVEL)
//
// Running with no config file at all is the normal case: the defaults check
// every .json file under the working directory.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/lattice-substrate/json-casegate/caseerr"
	"github.com/lattice-substrate/json-casegate/logging"
	"github.com/lattice-substrate/json-casegate/validator"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "JSONCASE"

// Config is the root configuration structure.
type Config struct {
	Roots      []string  `mapstructure:"roots"`
	Extensions []string  `mapstructure:"extensions"`
	Exclude    []string  `mapstructure:"exclude"`
	Fields     []string  `mapstructure:"fields"`
	Mode       string    `mapstructure:"mode"`
	Unique     bool      `mapstructure:"unique"`
	Log        LogConfig `mapstructure:"log"`

	// File is the config file the settings were read from, "" for none.
	File string `mapstructure:"-"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// CandidatePaths lists the config files looked for in dir, in precedence order.
func CandidatePaths(dir string) []string {
	return []string{
		filepath.Join(dir, ".jsoncase.toml"),
		filepath.Join(dir, ".jsoncase.yaml"),
		filepath.Join(dir, ".jsoncase.yml"),
		filepath.Join(dir, ".jsoncase.json"),
	}
}

// Discover returns the first existing candidate config file in dir, or ""
// when there is none.
func Discover(dir string) string {
	for _, p := range CandidatePaths(dir) {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// Load builds the configuration. An empty path means "discover in the
// working directory, fall back to defaults".
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path == "" {
		path = Discover(".")
	}
	if path != "" {
		settings, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, caseerr.Wrap(caseerr.ConfigError, path, "merge config", err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, caseerr.Wrap(caseerr.ConfigError, path, "unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, caseerr.Wrap(caseerr.ConfigError, path, "validate config", err)
	}
	cfg.File = path
	return &cfg, nil
}

func decodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, caseerr.Wrap(caseerr.ConfigError, path, "read config", err)
	}

	settings := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&settings)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &settings)
	case ".json":
		err = json.Unmarshal(data, &settings)
	default:
		return nil, caseerr.New(caseerr.ConfigError, path, fmt.Sprintf("unsupported config format %q", ext))
	}
	if err != nil {
		return nil, caseerr.Wrap(caseerr.ConfigError, path, "decode config", err)
	}
	return settings, nil
}

// Validate checks for configuration errors.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("roots must not be empty")
	}
	if err := nonEmpty("roots", c.Roots); err != nil {
		return err
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	if err := nonEmpty("extensions", c.Extensions); err != nil {
		return err
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("fields must not be empty")
	}
	if err := nonEmpty("fields", c.Fields); err != nil {
		return err
	}
	if _, err := validator.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("log.format must be %s or %s, got %q", logging.FormatJSON, logging.FormatConsole, c.Log.Format)
	}
	return nil
}

func nonEmpty(key string, values []string) error {
	for i, s := range values {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s[%d] must not be blank", key, i)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("roots", []string{"."})
	v.SetDefault("extensions", []string{".json"})
	v.SetDefault("exclude", []string{})
	v.SetDefault("fields", validator.DefaultFields)
	v.SetDefault("mode", string(validator.ModeFailFast))
	v.SetDefault("unique", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", logging.FormatConsole)
}
