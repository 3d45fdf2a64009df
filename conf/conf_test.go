package conf_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/autoprogcomp/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeToml(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autoprogcomp.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLayersTomlAndEnv(t *testing.T) {
	path := writeToml(t, `
timezone = "America/Santiago"

[codeforces]
cooldown = "5s"
max_retries = 2

[sheet]
backend = "csv"
csv_path = "board.csv"

[schedule]
hour = 7
minute = 30
`)
	t.Setenv("APC_CF_API_KEY", "key-from-env")
	t.Setenv("APC_SCHEDULE_MINUTE", "45")

	cfg, err := conf.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Codeforces.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Codeforces.Cooldown.Duration)
	assert.Equal(t, 20*time.Second, cfg.Codeforces.RetryDelay.Duration)
	assert.Equal(t, 2, cfg.Codeforces.MaxRetries)
	assert.Equal(t, "csv", cfg.Sheet.Backend)
	assert.Equal(t, 7, cfg.Schedule.Hour)
	assert.Equal(t, 45, cfg.Schedule.Minute)
	assert.Equal(t, "America/Santiago", cfg.Location().String())
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := conf.Default()
	cfg.Sheet.Backend = "google"
	cfg.Schedule.Minute = 75
	cfg.TimeZone = "Mars/Olympus"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "APC_SPREADSHEET_ID")
	assert.Contains(t, msg, "APC_SHEET_NAME")
	assert.Contains(t, msg, "APC_SCHEDULE_MINUTE")
	assert.Contains(t, msg, "APC_TIMEZONE")
}

func TestValidateRejectsReplayWithoutArchive(t *testing.T) {
	cfg := conf.Default()
	cfg.Sheet.Backend = "csv"
	cfg.Sheet.CSVPath = "x.csv"
	cfg.Archive.ReplayRun = "some-run"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive backend")
}

func TestLoadMissingTomlFails(t *testing.T) {
	_, err := conf.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestServerSettingsFromEnv(t *testing.T) {
	path := writeToml(t, `
[sheet]
backend = "csv"
csv_path = "board.csv"

[server]
address = ":9090"
allowed_origins = ["https://a.example"]
`)
	t.Setenv("APC_SERVER_TOKEN", "s3cret")
	t.Setenv("APC_SERVER_ALLOWED_ORIGINS", "https://b.example,https://c.example")

	cfg, err := conf.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "s3cret", cfg.Server.Token)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.Server.AllowedOrigins)
}
