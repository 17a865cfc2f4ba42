// Package config loads printsheet's configuration. Tunables live in a json5 file
// (with an optional .local override), secrets come from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"printsheet/internal/analyzer"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/scrapers/archive"
	"printsheet/internal/sheets"
	"printsheet/lib/configutil"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvApiKey          = "API_KEY"
	EnvModel           = "AI_MODEL"
	EnvSpreadsheetId   = "SPREADSHEET_ID"
	EnvCredentialsFile = "CREDENTIALS_FILE"
)

const DefaultCredentialsFile = "credentials/credentials.json"

type ArchiveConfig struct {
	BaseUrl           string `json:"base_url"`
	SearchTerm        string `json:"search_term"`
	PageSize          int    `json:"page_size"`
	// MaxPages is the page ceiling, 0 or less disables it. Unset means DefaultMaxPages.
	MaxPages          *int   `json:"max_pages"`
	DetailConcurrency int    `json:"detail_concurrency"`
	TimeoutSeconds    int    `json:"timeout_seconds"`
	CloudflareBypass  *bool  `json:"cloudflare_bypass"`
}

func (c ArchiveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type AnalyzerConfig struct {
	BaseUrl string `json:"base_url"`
	// Concurrency bounds the model calls in flight, 0 or less means no bound.
	// Unset means DefaultConcurrency.
	Concurrency *int `json:"concurrency"`
}

type SheetsConfig struct {
	Range           string `json:"range"`
	CredentialsFile string `json:"credentials_file"`
}

type Config struct {
	Archive  ArchiveConfig        `json:"archive"`
	Analyzer AnalyzerConfig       `json:"analyzer"`
	Sheets   SheetsConfig         `json:"sheets"`
	Otlp     telemetry.OtlpConfig `json:"otlp"`

	ApiKey        string `json:"-"`
	Model         string `json:"-"`
	SpreadsheetId string `json:"-"`
}

// Load reads the config file at `path` and the secrets from the environment. A missing
// config file is fine, the defaults are used instead. Values in a .env file in the
// working directory are loaded into the environment first, without overriding variables
// that are already set.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg.ApiKey = os.Getenv(EnvApiKey)
	cfg.Model = os.Getenv(EnvModel)
	cfg.SpreadsheetId = os.Getenv(EnvSpreadsheetId)
	if credentials := os.Getenv(EnvCredentialsFile); credentials != "" {
		cfg.Sheets.CredentialsFile = credentials
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Archive.BaseUrl == "" {
		c.Archive.BaseUrl = archive.DefaultBaseUrl
	}
	if c.Archive.SearchTerm == "" {
		c.Archive.SearchTerm = archive.DefaultSearchTerm
	}
	if c.Archive.PageSize <= 0 {
		c.Archive.PageSize = archive.DefaultPageSize
	}
	if c.Archive.MaxPages == nil {
		maxPages := archive.DefaultMaxPages
		c.Archive.MaxPages = &maxPages
	}
	if c.Archive.DetailConcurrency <= 0 {
		c.Archive.DetailConcurrency = archive.DefaultDetailConcurrency
	}
	if c.Archive.TimeoutSeconds == 0 {
		c.Archive.TimeoutSeconds = 30
	}
	if c.Archive.CloudflareBypass == nil {
		bypass := true
		c.Archive.CloudflareBypass = &bypass
	}
	if c.Analyzer.BaseUrl == "" {
		c.Analyzer.BaseUrl = analyzer.DefaultBaseUrl
	}
	if c.Analyzer.Concurrency == nil {
		concurrency := analyzer.DefaultConcurrency
		c.Analyzer.Concurrency = &concurrency
	}
	if c.Sheets.Range == "" {
		c.Sheets.Range = sheets.DefaultRange
	}
	if c.Sheets.CredentialsFile == "" {
		c.Sheets.CredentialsFile = DefaultCredentialsFile
	}
}

// Validate checks that everything required by the enabled stages is present,
// `analyze` covers the language model and `write` covers the spreadsheet.
func (c Config) Validate(analyze, write bool) error {
	var errlist []error
	if analyze {
		if c.Model == "" {
			errlist = append(errlist, fmt.Errorf("%s is not defined, please define it and try again", EnvModel))
		}
		if c.ApiKey == "" {
			errlist = append(errlist, fmt.Errorf("%s is not defined, please define it and try again", EnvApiKey))
		}
	}
	if write {
		if c.SpreadsheetId == "" {
			errlist = append(errlist, fmt.Errorf("%s is not defined, please define it and try again", EnvSpreadsheetId))
		}
		_, err := os.Stat(c.Sheets.CredentialsFile)
		if err != nil {
			errlist = append(errlist, fmt.Errorf("credentials file not found at %s: %w", c.Sheets.CredentialsFile, err))
		}
	}
	return errors.Join(errlist...)
}
