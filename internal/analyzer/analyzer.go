// Package analyzer extracts what is being printed, and by whom, out of scraped emails
// using a language model.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"printsheet/internal/components/assert"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/email"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_analyzer_analyze     = "analyzer.analyze"
	report_analyzer_analyze_all = "analyzer.analyze-all"
	report_analyzer_metrics     = "analyzer.metrics"
)

// DefaultConcurrency is the number of model calls in flight at once when none is configured.
const DefaultConcurrency = 8

// ErrNoContent means the email had nothing to analyze, the model was not called.
var ErrNoContent = errors.New("email has no content")

var (
	tracer = otel.Tracer("printsheet.internal.analyzer")
	meter  = otel.Meter("printsheet.internal.analyzer")
)

// Result is the outcome of analyzing a single email. Exactly one of Extraction and Err
// is set.
type Result struct {
	Record     email.Record
	Extraction *email.Extraction
	Err        error
}

func (r Result) Ok() bool {
	return r.Err == nil
}

// Analyzed renders the result as a record, a failed analysis leaves both derived
// fields nil.
func (r Result) Analyzed() email.Analyzed {
	if r.Err != nil || r.Extraction == nil {
		return r.Record.Unanalyzed()
	}
	return r.Record.WithExtraction(*r.Extraction)
}

// Failures counts the results that did not produce an extraction.
func Failures(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Ok() {
			n++
		}
	}
	return n
}

type Analyzer struct {
	model       Model
	concurrency int
	results     metric.Int64Counter

	tel telemetry.API
}

// NewAnalyzer creates an Analyzer that keeps at most `concurrency` model calls in
// flight, a `concurrency` of 0 or less means one call per email all at once.
func NewAnalyzer(model Model, concurrency int, tel telemetry.API) Analyzer {
	assert.NotNil(model)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("analyzer", tel)

	results, err := meter.Int64Counter(
		"printsheet.analyzer.results",
		metric.WithDescription("Emails analyzed, by outcome."),
	)
	if err != nil {
		tel.ReportWarning(report_analyzer_metrics, fmt.Errorf("create counter: %w", err))
	}

	return Analyzer{
		model:       model,
		concurrency: concurrency,
		results:     results,
		tel:         tel,
	}
}

func (a Analyzer) record(ctx context.Context, outcome string) {
	if a.results == nil {
		return
	}
	a.results.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Analyze asks the model for the derived fields of a single email. It does not return
// an error, failures are carried in the Result.
func (a Analyzer) Analyze(ctx context.Context, record email.Record) (result Result) {
	result.Record = record

	if record.Content == nil || *record.Content == "" {
		a.tel.ReportDebug("skipping email without content", record.ID)
		a.record(ctx, "no_content")
		result.Err = ErrNoContent
		return result
	}

	ctx, span := tracer.Start(ctx, "Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("email.id", record.ID))

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Extraction = nil
			result.Err = fmt.Errorf("panic while analyzing: %v", recovered)
		}
		if result.Err != nil {
			a.tel.ReportWarning(report_analyzer_analyze, result.Err, record.ID)
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, "analyze")
			a.record(ctx, "failed")
			return
		}
		a.record(ctx, "ok")
	}()

	text, err := a.model.Generate(ctx, BuildPrompt(*record.Content))
	if err != nil {
		result.Err = fmt.Errorf("generate: %w", err)
		return result
	}

	extraction, err := ParseExtraction(text)
	if err != nil {
		result.Err = err
		return result
	}

	result.Extraction = &extraction
	return result
}

// AnalyzeAll analyzes every email and returns the results in the same order as
// `records`. It only returns once every email has a result.
func (a Analyzer) AnalyzeAll(ctx context.Context, records []email.Record) []Result {
	ctx, span := tracer.Start(ctx, "AnalyzeAll")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	results := make([]Result, len(records))

	var group errgroup.Group
	if a.concurrency > 0 {
		group.SetLimit(a.concurrency)
	}
	for i, record := range records {
		group.Go(func() error {
			results[i] = a.Analyze(ctx, record)
			return nil
		})
	}
	group.Wait()

	failures := Failures(results)
	a.tel.ReportCount(report_analyzer_analyze_all, int64(failures))
	span.SetAttributes(attribute.Int("failures", failures))

	return results
}
