// client.go contains the logic for fetching and parsing the archive's search listing and
// email detail pages, it does not know anything about pagination.

package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"printsheet/internal/components/assert"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/email"
	"strconv"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	report_client_fetch_page    = "client.fetch-page"
	report_client_fetch_content = "client.fetch-content"
	report_client_parse_row     = "client.parse-row"
)

const (
	DefaultBaseUrl           = "https://wikileaks.org/clinton-emails/"
	DefaultSearchTerm        = "printing"
	DefaultPageSize          = 50
	DefaultDetailConcurrency = 8
)

const (
	rowSelector     = ".table.table-striped.search-result tbody tr"
	contentSelector = "div.email-content#uniquer"
)

var tracer = otel.Tracer("printsheet.internal.scrapers.archive")

type ClientOptions struct {
	// BaseUrl is both the search endpoint and the base detail links are resolved against.
	BaseUrl    string
	SearchTerm string
	PageSize   int
	// DetailConcurrency bounds the detail pages fetched at once for a single listing page.
	DetailConcurrency int
	// Timeout is applied to every request, 0 means no timeout.
	Timeout          time.Duration
	CloudflareBypass bool
	// Dump is optional.
	Dump telemetry.HttpDump
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.SearchTerm == "" {
		o.SearchTerm = DefaultSearchTerm
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.DetailConcurrency <= 0 {
		o.DetailConcurrency = DefaultDetailConcurrency
	}
	return o
}

type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	options ClientOptions

	tel telemetry.API
}

func NewClient(options ClientOptions, tel telemetry.API) (Client, error) {
	assert.NotNil(tel)

	options = options.withDefaults()
	tel = telemetry.NewScopedAPI("archive_scraper", tel)

	baseUrl, err := url.Parse(options.BaseUrl)
	if err != nil {
		return Client{}, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	if options.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if options.Timeout > 0 {
		httpClient.SetTimeout(options.Timeout)
	}

	telemetry.InstrumentResty(httpClient, tel, options.Dump)

	return Client{
		baseUrl: baseUrl,
		http:    httpClient,
		options: options,
		tel:     tel,
	}, nil
}

// ListingUrl returns the search results url for the given page, pages start at 1.
func (c Client) ListingUrl(page int) string {
	link := *c.baseUrl
	query := url.Values{}
	query.Set("q", c.options.SearchTerm)
	query.Set("count", strconv.Itoa(c.options.PageSize))
	query.Set("page", strconv.Itoa(page))
	link.RawQuery = query.Encode()
	return link.String()
}

// DetailUrl resolves an email's href against the base url.
func (c Client) DetailUrl(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return c.baseUrl.ResolveReference(ref).String(), nil
}

func (c Client) fetchDocument(ctx context.Context, endpoint string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch: unexpected status %s", res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return doc, nil
}

// FetchPage fetches one page of search results and the content of every email on it.
// A page without any rows gives an empty slice and no error, that is how the end of the
// results is signaled.
func (c Client) FetchPage(ctx context.Context, page int) ([]email.Record, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	endpoint := c.ListingUrl(page)
	c.tel.ReportDebug(report_client_fetch_page, endpoint)

	doc, err := c.fetchDocument(ctx, endpoint)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_page, err, endpoint)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch listing")
		return nil, err
	}

	records := c.parseListing(doc)
	span.SetAttributes(attribute.Int("records", len(records)))
	if len(records) == 0 {
		return records, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.options.DetailConcurrency)
	for i := range records {
		group.Go(func() error {
			content, err := c.fetchContent(groupCtx, records[i])
			if err != nil {
				return fmt.Errorf("email %s: %w", records[i].ID, err)
			}
			if content != "" {
				records[i].Content = &content
			}
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch content")
		return nil, err
	}

	return records, nil
}

func cellText(row *goquery.Selection, n int) *string {
	cell := row.Find(fmt.Sprintf("td:nth-child(%d)", n)).First()
	if cell.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(cell.Text())
	return &text
}

func (c Client) parseListing(doc *goquery.Document) []email.Record {
	records := []email.Record{}
	doc.Find(rowSelector).Each(func(i int, row *goquery.Selection) {
		// header rows
		if row.Find("td").Length() == 0 {
			return
		}

		id := cellText(row, 1)
		if id == nil || *id == "" {
			c.tel.ReportWarning(
				report_client_parse_row,
				fmt.Errorf("row %d has no id", i),
			)
			return
		}

		var date string
		if d := cellText(row, 2); d != nil {
			date = *d
		}

		records = append(records, email.Record{
			ID:      *id,
			Href:    strings.TrimSpace(row.Find("td:nth-child(1) a").First().AttrOr("href", "")),
			Date:    date,
			Subject: cellText(row, 3),
			From:    cellText(row, 4),
			To:      cellText(row, 5),
		})
	})
	return records
}

func (c Client) fetchContent(ctx context.Context, record email.Record) (string, error) {
	if record.Href == "" {
		c.tel.ReportWarning(
			report_client_fetch_content,
			fmt.Errorf("email has no detail link"),
			record.ID,
		)
		return "", nil
	}

	endpoint, err := c.DetailUrl(record.Href)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch_content,
			fmt.Errorf("resolve detail url: %w", err),
			record.Href,
		)
		return "", err
	}

	c.tel.ReportDebug(report_client_fetch_content, endpoint)

	doc, err := c.fetchDocument(ctx, endpoint)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_content, err, endpoint)
		return "", err
	}

	return ExtractContent(doc), nil
}
