// Package config loads reservoir-charts settings from defaults, an optional
// YAML file, RESERVOIR_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "reservoir.yaml"

// EnvPrefix marks environment variables that map onto config keys:
// RESERVOIR_PLOTS_DIR sets plots_dir.
const EnvPrefix = "RESERVOIR_"

// Config holds every setting of the CLI and the chart server.
type Config struct {
	DataDir      string `koanf:"data_dir" validate:"required"`
	LevelsFile   string `koanf:"levels_file" validate:"required"`
	RainfallFile string `koanf:"rainfall_file" validate:"required"`
	PlotsDir     string `koanf:"plots_dir" validate:"required"`
	Format       string `koanf:"format" validate:"required,oneof=pdf svg eps png jpg jpeg tif tiff"`
	Backend      string `koanf:"backend" validate:"oneof=gonum gochart"`

	Show          bool    `koanf:"show"`
	Save          bool    `koanf:"save"`
	DisplayMode   string  `koanf:"display_mode" validate:"oneof=block nonblock"`
	DisplayWidth  int     `koanf:"display_width" validate:"gt=0"`
	DisplayHeight int     `koanf:"display_height" validate:"gt=0"`
	ChartWidth    float64 `koanf:"chart_width" validate:"gt=0"`  // inches
	ChartHeight   float64 `koanf:"chart_height" validate:"gt=0"` // inches

	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=json text"`

	HTTPAddr        string        `koanf:"http_addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	MetricsTextfile string `koanf:"metrics_textfile"`
	Output          string `koanf:"output" validate:"oneof=text json yaml"`
}

// Defaults mirror the bundled data layout: two Chennai reservoir files under
// data/, charts saved as PDF and never displayed.
func Defaults() map[string]any {
	return map[string]any{
		"data_dir":         "data",
		"levels_file":      "chennai_reservoir_levels.csv",
		"rainfall_file":    "chennai_reservoir_rainfall.csv",
		"plots_dir":        "plots",
		"format":           "pdf",
		"backend":          "gonum",
		"show":             false,
		"save":             true,
		"display_mode":     "block",
		"display_width":    100,
		"display_height":   20,
		"chart_width":      10.0,
		"chart_height":     6.0,
		"log_level":        "info",
		"log_format":       "json",
		"http_addr":        ":8080",
		"shutdown_timeout": "10s",
		"metrics_textfile": "",
		"output":           "text",
	}
}

// Sources names where Load reads from. Empty fields fall back to DefaultFile
// and ".env" in the working directory.
type Sources struct {
	File    string
	EnvFile string
	Flags   *pflag.FlagSet
}

// Load layers defaults, the YAML file, environment variables and explicitly
// set flags, in increasing order of precedence, then validates the result.
func Load(src Sources) (*Config, error) {
	if err := loadDotenv(src.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path, err := configFile(src.File)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if src.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(src.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(src.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimPrefix(cfg.Format, "."))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports offending keys by their
// config names.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		return name
	})

	v.RegisterStructValidation(validateBackendFormat, Config{})

	err := v.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// backendFormats lists the document formats of backends that cannot write
// every format. Backends not listed accept any valid format.
var backendFormats = map[string][]string{
	"gochart": {"png", "svg"},
}

func validateBackendFormat(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	formats, ok := backendFormats[cfg.Backend]
	if ok && !slices.Contains(formats, cfg.Format) {
		sl.ReportError(cfg.Format, "format", "Format", cfg.Backend+"_format", strings.Join(formats, " "))
	}
}

// LevelsPath returns the levels file, resolved against DataDir unless absolute.
func (c *Config) LevelsPath() string {
	return resolve(c.DataDir, c.LevelsFile)
}

// RainfallPath returns the rainfall file, resolved against DataDir unless absolute.
func (c *Config) RainfallPath() string {
	return resolve(c.DataDir, c.RainfallFile)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// configFile returns the YAML file to read, or "" when none applies. A file
// that was named explicitly must exist.
func configFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}
	return "", nil
}

// loadDotenv exports a .env file into the process environment without
// overriding variables that are already set.
func loadDotenv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
