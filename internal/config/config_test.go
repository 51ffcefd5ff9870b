package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray reservoir.yaml or
// .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(Sources{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "chennai_reservoir_levels.csv"), cfg.LevelsPath())
	assert.Equal(t, filepath.Join("data", "chennai_reservoir_rainfall.csv"), cfg.RainfallPath())
	assert.Equal(t, "plots", cfg.PlotsDir)
	assert.Equal(t, "pdf", cfg.Format)
	assert.Equal(t, "gonum", cfg.Backend)
	assert.False(t, cfg.Show)
	assert.True(t, cfg.Save)
	assert.Equal(t, "block", cfg.DisplayMode)
	assert.Equal(t, 100, cfg.DisplayWidth)
	assert.InDelta(t, 10.0, cfg.ChartWidth, 0)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "text", cfg.Output)
	assert.Empty(t, cfg.MetricsTextfile)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`
plots_dir: from-file
format: svg
log_level: debug
shutdown_timeout: 3s
`), 0o600))
	t.Setenv("RESERVOIR_FORMAT", "png")
	t.Setenv("RESERVOIR_SHOW", "true")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("plots-dir", "plots", "")
	require.NoError(t, flags.Parse([]string{"--log-level=warn"}))

	cfg, err := Load(Sources{Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.PlotsDir, "unset flag must not override the file")
	assert.Equal(t, "png", cfg.Format, "env overrides file")
	assert.True(t, cfg.Show)
	assert.Equal(t, "warn", cfg.LogLevel, "flag overrides file")
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Dotenv(t *testing.T) {
	dir := isolate(t)
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv("RESERVOIR_PLOTS_DIR", "")
	require.NoError(t, os.Unsetenv("RESERVOIR_PLOTS_DIR"))

	envFile := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RESERVOIR_PLOTS_DIR=from-dotenv\n"), 0o600))

	cfg, err := Load(Sources{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.PlotsDir)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	_, err := Load(Sources{File: "absent.yaml"})
	assert.ErrorContains(t, err, "config file")
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		key   string
		value string
		want  string
	}{
		{"RESERVOIR_FORMAT", "docx", "format"},
		{"RESERVOIR_BACKEND", "matplotlib", "backend"},
		{"RESERVOIR_DISPLAY_MODE", "sometimes", "display_mode"},
		{"RESERVOIR_OUTPUT", "xml", "output"},
		{"RESERVOIR_CHART_WIDTH", "0", "chart_width"},
		{"RESERVOIR_PLOTS_DIR", "", "plots_dir"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			isolate(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load(Sources{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_BackendFormatMismatch(t *testing.T) {
	isolate(t)
	t.Setenv("RESERVOIR_BACKEND", "gochart")

	_, err := Load(Sources{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `format: failed "gochart_format" (got pdf)`)

	t.Setenv("RESERVOIR_FORMAT", "png")
	cfg, err := Load(Sources{})
	require.NoError(t, err)
	assert.Equal(t, "gochart", cfg.Backend)
}

func TestLoad_FormatNormalised(t *testing.T) {
	isolate(t)
	t.Setenv("RESERVOIR_FORMAT", ".SVG")

	cfg, err := Load(Sources{})
	require.NoError(t, err)
	assert.Equal(t, "svg", cfg.Format)
}

func TestPaths_Absolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "levels.csv")
	cfg := &Config{DataDir: "data", LevelsFile: abs, RainfallFile: "rain.csv"}

	assert.Equal(t, abs, cfg.LevelsPath())
	assert.Equal(t, filepath.Join("data", "rain.csv"), cfg.RainfallPath())
}
