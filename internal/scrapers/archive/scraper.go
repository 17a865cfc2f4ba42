// scraper.go walks the search results page by page on top of a PageFetcher.

package archive

import (
	"context"
	"errors"
	"fmt"
	"printsheet/internal/components/assert"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/email"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_scraper_scrape_all = "scraper.scrape-all"
)

// NoLimit makes ScrapeAll collect every email in the search results.
const NoLimit = -1

// DefaultMaxPages is the page ceiling used when none is configured.
const DefaultMaxPages = 1000

// ErrPageCeiling is returned alongside the collected records when ScrapeAll gives up
// before the results ran out.
var ErrPageCeiling = errors.New("archive: page ceiling reached")

// PageFetcher fetches a single page of emails, an empty page marks the end of the results.
//
// note: fault injection point
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]email.Record, error)
}

type Scraper struct {
	pages    PageFetcher
	maxPages int
	tel      telemetry.API
}

// NewScraper creates a Scraper, a `maxPages` of 0 or less removes the page ceiling.
func NewScraper(pages PageFetcher, maxPages int, tel telemetry.API) Scraper {
	assert.NotNil(pages)
	assert.NotNil(tel)

	return Scraper{
		pages:    pages,
		maxPages: maxPages,
		tel:      telemetry.NewScopedAPI("archive_scraper", tel),
	}
}

// ScrapeAll fetches pages 1, 2, 3... in order until a page comes back empty or at least
// `limit` emails have been collected, the result is then cut down to exactly `limit`.
// A `limit` of 0 still fetches the first page. Use NoLimit to collect everything.
//
// If a page fails to fetch, scraping stops and the error is returned. If the page after
// the ceiling still has emails, the emails collected up to the ceiling are returned with
// ErrPageCeiling.
func (s Scraper) ScrapeAll(ctx context.Context, limit int) ([]email.Record, error) {
	ctx, span := tracer.Start(ctx, "ScrapeAll")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	var records []email.Record
	for page := 1; ; page++ {
		batch, err := s.pages.FetchPage(ctx, page)
		if err != nil {
			err = fmt.Errorf("page %d: %w", page, err)
			s.tel.ReportBroken(report_scraper_scrape_all, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch page")
			return nil, err
		}

		if len(batch) == 0 {
			s.tel.ReportDebug("reached last page", page-1, len(records))
			span.SetAttributes(attribute.Int("pages", page-1))
			return records, nil
		}

		// the page past the ceiling is only fetched to tell whether the results ran out
		if s.maxPages > 0 && page > s.maxPages {
			s.tel.ReportWarning(report_scraper_scrape_all, ErrPageCeiling, s.maxPages, len(records))
			span.SetStatus(codes.Error, "page ceiling")
			return records, fmt.Errorf("%w: stopped after %d pages", ErrPageCeiling, s.maxPages)
		}

		records = append(records, batch...)
		s.tel.ReportDebug("scraped page", page, len(batch), len(records))

		if limit >= 0 && len(records) >= limit {
			if limit == 0 {
				s.tel.ReportDebug("limit of 0 satisfied after first page")
			}
			s.tel.ReportDebug("reached limit", limit, page)
			span.SetAttributes(attribute.Int("pages", page))
			return records[:limit], nil
		}
	}
}
