// Package sheets overwrites a spreadsheet range with analyzed emails.
package sheets

import (
	"context"
	"printsheet/internal/components/assert"
	"printsheet/internal/components/telemetry"
	"printsheet/internal/email"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_writer_write = "writer.write"
)

// DefaultRange is the top left cell the grid is written from.
const DefaultRange = "Sheet1!A1"

var tracer = otel.Tracer("printsheet.internal.sheets")

// ValuesUpdater overwrites a range of a spreadsheet with raw values.
//
// note: fault injection point
type ValuesUpdater interface {
	Update(ctx context.Context, spreadsheetId, writeRange string, values [][]any) error
}

type Writer struct {
	values        ValuesUpdater
	spreadsheetId string
	writeRange    string

	tel telemetry.API
}

func NewWriter(values ValuesUpdater, spreadsheetId, writeRange string, tel telemetry.API) Writer {
	assert.NotNil(values)
	assert.NotNil(tel)
	assert.NotEmptyStr(spreadsheetId)

	if writeRange == "" {
		writeRange = DefaultRange
	}
	return Writer{
		values:        values,
		spreadsheetId: spreadsheetId,
		writeRange:    writeRange,
		tel:           telemetry.NewScopedAPI("sheets", tel),
	}
}

// BuildGrid turns rows into a header row followed by one row per record. The headers are
// the field names of the first row, every row is assumed to have the same fields.
// Absent values become empty strings.
func BuildGrid(rows []email.Row) [][]any {
	if len(rows) == 0 {
		return nil
	}

	headers := make([]any, len(rows[0]))
	for i, field := range rows[0] {
		headers[i] = field.Name
	}

	grid := make([][]any, 0, len(rows)+1)
	grid = append(grid, headers)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, field := range row {
			if field.Value == nil {
				cells[i] = ""
				continue
			}
			cells[i] = *field.Value
		}
		grid = append(grid, cells)
	}
	return grid
}

// Write overwrites the configured range with the grid built from `rows`. Nothing is
// written when there are no rows. Failures are reported, not returned.
func (w Writer) Write(ctx context.Context, rows []email.Row) {
	if len(rows) == 0 {
		w.tel.ReportWarning(report_writer_write, "no emails to write")
		return
	}

	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()
	span.SetAttributes(
		attribute.String("range", w.writeRange),
		attribute.Int("rows", len(rows)),
	)

	grid := BuildGrid(rows)
	err := w.values.Update(ctx, w.spreadsheetId, w.writeRange, grid)
	if err != nil {
		w.tel.ReportBroken(report_writer_write, err, w.spreadsheetId, w.writeRange)
		span.RecordError(err)
		span.SetStatus(codes.Error, "update values")
		return
	}

	w.tel.ReportDebug("wrote rows", len(grid), w.writeRange)
}
