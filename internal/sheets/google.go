package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// GoogleValues implements ValuesUpdater with the Google Sheets v4 api.
type GoogleValues struct {
	srv *sheetsapi.Service
}

// NewGoogleValues creates a sheets service authenticated with the service account
// credentials stored at `credentialsFile`.
func NewGoogleValues(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (GoogleValues, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return GoogleValues{}, fmt.Errorf("read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return GoogleValues{}, fmt.Errorf("parse credentials file: %w", err)
	}

	opts = append([]option.ClientOption{option.WithCredentials(creds)}, opts...)
	srv, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return GoogleValues{}, fmt.Errorf("create sheets service: %w", err)
	}
	return GoogleValues{srv: srv}, nil
}

func (g GoogleValues) Update(ctx context.Context, spreadsheetId, writeRange string, values [][]any) error {
	_, err := g.srv.Spreadsheets.Values.
		Update(spreadsheetId, writeRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
