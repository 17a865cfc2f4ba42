package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"printsheet/internal/analyzer"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/email"
	"printsheet/internal/scrapers/archive"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type pagesOf [][]email.Record

func (p pagesOf) FetchPage(ctx context.Context, page int) ([]email.Record, error) {
	if page > len(p) {
		return nil, nil
	}
	return p[page-1], nil
}

type failingPages struct{}

func (failingPages) FetchPage(ctx context.Context, page int) ([]email.Record, error) {
	return nil, errors.New("connection reset")
}

type echoModel struct {
	calls atomic.Int32
}

func (m *echoModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if strings.Contains(prompt, "broken") {
		return "not json", nil
	}
	return `{"whatIsBeingPrinted": "schedule", "whoIsPrinting": "Lona"}`, nil
}

func ptr(s string) *string {
	return &s
}

func records(n int) []email.Record {
	out := make([]email.Record, n)
	for i := range out {
		out[i] = email.Record{
			ID:      fmt.Sprintf("C%d", i),
			Href:    fmt.Sprintf("emailid/%d", i),
			Subject: ptr("printing"),
			Content: ptr("please print the schedule"),
		}
	}
	return out
}

func field(row email.Row, name string) *string {
	for _, f := range row {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

func TestCollectAnalyzes(t *testing.T) {
	all := records(3)
	all[1].Content = ptr("this one is broken")

	model := &echoModel{}
	a := analyzer.NewAnalyzer(model, 2, &telemetry.Recorder{})
	p := pipeline{
		scraper:  archive.NewScraper(pagesOf{all[:2], all[2:]}, 0, &telemetry.Recorder{}),
		analyzer: &a,
	}

	rows, sum, err := p.collect(context.Background(), archive.NoLimit)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, int32(3), model.calls.Load())
	require.Equal(t, summary{scraped: 3, failed: 1, analyzed: true}, sum)

	require.Equal(t, "C0", *field(rows[0], "id"))
	require.Equal(t, "schedule", *field(rows[0], "whatIsBeingPrinted"))
	require.Nil(t, field(rows[1], "whatIsBeingPrinted"))
	require.Nil(t, field(rows[1], "whoIsPrinting"))
	require.Equal(t, "Lona", *field(rows[2], "whoIsPrinting"))
}

func TestCollectSkipAnalysis(t *testing.T) {
	p := pipeline{
		scraper: archive.NewScraper(pagesOf{records(5)}, 0, &telemetry.Recorder{}),
	}

	rows, sum, err := p.collect(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.False(t, sum.analyzed)
	require.Nil(t, field(rows[0], "whatIsBeingPrinted"))
	require.Equal(t, "please print the schedule", *field(rows[0], "content"))
}

func TestCollectPageCeiling(t *testing.T) {
	p := pipeline{
		scraper: archive.NewScraper(pagesOf{records(1), records(1), records(1)}, 2, &telemetry.Recorder{}),
	}

	rows, sum, err := p.collect(context.Background(), archive.NoLimit)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, sum.ceiling)
}

func TestCollectFetchError(t *testing.T) {
	p := pipeline{
		scraper: archive.NewScraper(failingPages{}, 0, &telemetry.Recorder{}),
	}

	rows, _, err := p.collect(context.Background(), archive.NoLimit)
	require.Error(t, err)
	require.Contains(t, err.Error(), "page 1")
	require.Nil(t, rows)
}

func TestRenderPreview(t *testing.T) {
	all := records(2)
	long := strings.Repeat("x", 200)
	all[0].Content = &long

	rows := email.Rows([]email.Analyzed{all[0].Unanalyzed(), all[1].Unanalyzed()})

	var out bytes.Buffer
	renderPreview(&out, rows)

	rendered := out.String()
	require.Contains(t, rendered, "ID")
	require.Contains(t, rendered, "C1")
	require.NotContains(t, rendered, long)
}

func TestRenderPreviewEmpty(t *testing.T) {
	var out bytes.Buffer
	renderPreview(&out, nil)
	require.Empty(t, out.String())
}
