package commands

import (
	"context"
	"errors"
	"log/slog"
	"printsheet/internal/analyzer"
	"printsheet/internal/email"
	"printsheet/internal/scrapers/archive"
	"printsheet/lib/serviceutil"

	"github.com/samber/lo"
)

// pipeline scrapes the archive and analyzes what it found, producing the rows
// that end up in the spreadsheet.
type pipeline struct {
	scraper archive.Scraper
	// analyzer is nil when analysis is skipped.
	analyzer *analyzer.Analyzer
}

type summary struct {
	scraped  int
	failed   int
	ceiling  bool
	analyzed bool
}

func (p pipeline) collect(ctx context.Context, limit int) ([]email.Row, summary, error) {
	var (
		records []email.Record
		err     error
		sum     summary
	)
	serviceutil.Timed("scrape", func() {
		records, err = p.scraper.ScrapeAll(ctx, limit)
	})
	if errors.Is(err, archive.ErrPageCeiling) {
		slog.Warn("page ceiling reached, continuing with the emails collected so far", "err", err, "emails", len(records))
		sum.ceiling = true
		err = nil
	}
	if err != nil {
		return nil, sum, err
	}
	sum.scraped = len(records)
	slog.Info("scraped emails", "count", len(records))

	if p.analyzer == nil {
		slog.Info("skipping analysis")
		analyzed := lo.Map(records, func(r email.Record, _ int) email.Analyzed {
			return r.Unanalyzed()
		})
		return email.Rows(analyzed), sum, nil
	}

	var results []analyzer.Result
	serviceutil.Timed("analyze", func() {
		results = p.analyzer.AnalyzeAll(ctx, records)
	})
	sum.analyzed = true
	sum.failed = analyzer.Failures(results)
	if sum.failed > 0 {
		slog.Warn("some emails could not be analyzed, their fields are left empty", "failed", sum.failed, "total", len(results))
	}

	analyzed := lo.Map(results, func(r analyzer.Result, _ int) email.Analyzed {
		return r.Analyzed()
	})
	return email.Rows(analyzed), sum, nil
}
