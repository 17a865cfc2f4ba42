package config

import (
	"os"
	"path/filepath"
	"printsheet/internal/analyzer"
	"printsheet/internal/scrapers/archive"
	"printsheet/internal/sheets"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, apiKey, model, spreadsheetId string) {
	t.Setenv(EnvApiKey, apiKey)
	t.Setenv(EnvModel, model)
	t.Setenv(EnvSpreadsheetId, spreadsheetId)
	t.Setenv(EnvCredentialsFile, "")
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, "key", "gemini-2.0-flash", "sheet-id")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)

	require.Equal(t, archive.DefaultBaseUrl, cfg.Archive.BaseUrl)
	require.Equal(t, archive.DefaultSearchTerm, cfg.Archive.SearchTerm)
	require.Equal(t, archive.DefaultPageSize, cfg.Archive.PageSize)
	require.Equal(t, archive.DefaultMaxPages, *cfg.Archive.MaxPages)
	require.Equal(t, 30*time.Second, cfg.Archive.Timeout())
	require.True(t, *cfg.Archive.CloudflareBypass)
	require.Equal(t, analyzer.DefaultBaseUrl, cfg.Analyzer.BaseUrl)
	require.Equal(t, analyzer.DefaultConcurrency, *cfg.Analyzer.Concurrency)
	require.Equal(t, sheets.DefaultRange, cfg.Sheets.Range)
	require.Equal(t, DefaultCredentialsFile, cfg.Sheets.CredentialsFile)

	require.Equal(t, "key", cfg.ApiKey)
	require.Equal(t, "gemini-2.0-flash", cfg.Model)
	require.Equal(t, "sheet-id", cfg.SpreadsheetId)
}

func TestLoadFile(t *testing.T) {
	setEnv(t, "", "", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	err := os.WriteFile(path, []byte(`{
		// fewer pages while testing
		archive: {
			max_pages: 3,
			cloudflare_bypass: false,
		},
		analyzer: { concurrency: -1 },
		sheets: { range: "Results!B2" },
	}`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, *cfg.Archive.MaxPages)
	require.False(t, *cfg.Archive.CloudflareBypass)
	require.Equal(t, -1, *cfg.Analyzer.Concurrency)
	require.Equal(t, "Results!B2", cfg.Sheets.Range)
	require.Equal(t, archive.DefaultSearchTerm, cfg.Archive.SearchTerm)
}

func TestLoadExplicitZero(t *testing.T) {
	setEnv(t, "", "", "")
	path := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(path, []byte(`{
		archive: { max_pages: 0 },
		analyzer: { concurrency: 0 },
	}`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, *cfg.Archive.MaxPages)
	require.Equal(t, 0, *cfg.Analyzer.Concurrency)
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	setEnv(t, "", "", "")
	t.Setenv(EnvCredentialsFile, "/etc/printsheet/sa.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "/etc/printsheet/sa.json", cfg.Sheets.CredentialsFile)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(path, []byte(`{ archive: `), 0644)
	require.NoError(t, err)

	_, err = Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	credentials := filepath.Join(t.TempDir(), "credentials.json")
	err := os.WriteFile(credentials, []byte(`{}`), 0644)
	require.NoError(t, err)

	complete := Config{
		ApiKey:        "key",
		Model:         "model",
		SpreadsheetId: "sheet",
		Sheets:        SheetsConfig{CredentialsFile: credentials},
	}

	cases := []struct {
		name    string
		cfg     Config
		analyze bool
		write   bool
		missing []string
	}{
		{
			name:    "complete",
			cfg:     complete,
			analyze: true,
			write:   true,
		},
		{
			name:    "nothing enabled",
			cfg:     Config{},
			analyze: false,
			write:   false,
		},
		{
			name:    "missing model secrets",
			cfg:     Config{SpreadsheetId: "sheet", Sheets: complete.Sheets},
			analyze: true,
			write:   true,
			missing: []string{EnvApiKey, EnvModel},
		},
		{
			name:    "analysis skipped",
			cfg:     Config{SpreadsheetId: "sheet", Sheets: complete.Sheets},
			analyze: false,
			write:   true,
		},
		{
			name:    "missing spreadsheet",
			cfg:     Config{ApiKey: "key", Model: "model", Sheets: SheetsConfig{CredentialsFile: "does-not-exist.json"}},
			analyze: true,
			write:   true,
			missing: []string{EnvSpreadsheetId, "does-not-exist.json"},
		},
		{
			name:    "dry run",
			cfg:     Config{ApiKey: "key", Model: "model"},
			analyze: true,
			write:   false,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate(test.analyze, test.write)
			if len(test.missing) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, name := range test.missing {
				require.Contains(t, err.Error(), name)
			}
		})
	}
}
