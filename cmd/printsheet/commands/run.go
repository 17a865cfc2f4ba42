package commands

import (
	"context"
	"log/slog"
	"os"
	"printsheet/internal/analyzer"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/config"
	"printsheet/internal/scrapers/archive"
	"printsheet/internal/sheets"
	"printsheet/lib/serviceutil"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath   *string
	limit        *int
	concurrency  *int
	maxPages     *int
	dryRun       *bool
	skipAnalysis *bool
	dumpHttp     *string
)

func init() {
	flags := runCmd.Flags()
	configPath = flags.String("config", "config.json5", "The config file to read, <name>.local.json5 overrides it.")
	limit = flags.IntP("limit", "n", archive.NoLimit, "The number of emails to collect, -1 collects all of them.")
	concurrency = flags.Int("concurrency", 0, "The number of emails analyzed at once, overrides analyzer.concurrency.")
	maxPages = flags.Int("max-pages", 0, "The number of search pages to give up after, overrides archive.max_pages.")
	dryRun = flags.Bool("dry-run", false, "Print the rows as a table instead of writing the spreadsheet.")
	skipAnalysis = flags.Bool("skip-analysis", false, "Write the scraped emails without asking the model about them.")
	dumpHttp = flags.String("dump-http", "", "A directory to write every archive request and response to.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--limit <n>] [--dry-run] [--skip-analysis]",
	Short: "Scrapes the archive, extracts who is printing what and writes it to the spreadsheet.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		start := time.Now()

		cfg, err := config.Load(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Analyzer.Concurrency = concurrency
		}
		if cmd.Flags().Changed("max-pages") {
			cfg.Archive.MaxPages = maxPages
		}
		err = cfg.Validate(!*skipAnalysis, !*dryRun)
		if err != nil {
			serviceutil.Fatal("invalid configuration", err)
		}

		otel, err := telemetry.Setup(ctx, "printsheet", cfg.Otlp)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		shutdown := func() {
			// the run context may already be cancelled by a signal
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			err := otel.Shutdown(shutdownCtx)
			if err != nil {
				slog.Warn("failed to shutdown telemetry", "err", err)
			}
		}
		defer shutdown()

		tel := telemetry.SlogAPI{}

		var dump telemetry.HttpDump
		if *dumpHttp != "" {
			fsDump, err := telemetry.NewFilesystemDump(*dumpHttp, tel)
			if err != nil {
				serviceutil.Fatal("failed to create http dump directory", err, shutdown)
			}
			dump = fsDump
		}

		client, err := archive.NewClient(archive.ClientOptions{
			BaseUrl:           cfg.Archive.BaseUrl,
			SearchTerm:        cfg.Archive.SearchTerm,
			PageSize:          cfg.Archive.PageSize,
			DetailConcurrency: cfg.Archive.DetailConcurrency,
			Timeout:           cfg.Archive.Timeout(),
			CloudflareBypass:  *cfg.Archive.CloudflareBypass,
			Dump:              dump,
		}, tel)
		if err != nil {
			serviceutil.Fatal("failed to create archive client", err, shutdown)
		}

		p := pipeline{
			scraper: archive.NewScraper(client, *cfg.Archive.MaxPages, tel),
		}
		if !*skipAnalysis {
			model := analyzer.NewOpenAIModel(cfg.Analyzer.BaseUrl, cfg.ApiKey, cfg.Model)
			a := analyzer.NewAnalyzer(model, *cfg.Analyzer.Concurrency, tel)
			p.analyzer = &a
		}

		rows, sum, err := p.collect(ctx, *limit)
		if err != nil {
			serviceutil.Fatal("failed to scrape the archive", err, shutdown)
		}

		if *dryRun {
			renderPreview(os.Stdout, rows)
		} else {
			values, err := sheets.NewGoogleValues(ctx, cfg.Sheets.CredentialsFile)
			if err != nil {
				serviceutil.Fatal("failed to create sheets client", err, shutdown)
			}
			writer := sheets.NewWriter(values, cfg.SpreadsheetId, cfg.Sheets.Range, tel)
			serviceutil.Timed("write", func() {
				writer.Write(ctx, rows)
			})
		}

		slog.Info(
			"done",
			"emails", sum.scraped,
			"analyzed", sum.analyzed,
			"failed", sum.failed,
			"page_ceiling", sum.ceiling,
			"seconds", time.Since(start).Seconds(),
		)
	},
}
