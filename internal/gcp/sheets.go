package gcp

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputRaw = "RAW"

// SheetsStore reads and writes cell ranges through the Sheets API. All calls
// from one process share a token-bucket limiter.
type SheetsStore struct {
	service *sheets.Service
	limiter *rate.Limiter
}

// NewSheetsStore creates a SheetsStore limited to rps requests per second.
func NewSheetsStore(ctx context.Context, rps float64, burst int, opts ...option.ClientOption) (*SheetsStore, error) {
	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if burst < 1 {
		burst = 1
	}
	return &SheetsStore{service: service, limiter: rate.NewLimiter(rate.Limit(rps), burst)}, nil
}

// Read returns the range as rows of strings. Missing trailing cells are
// omitted, as the API returns them.
func (s *SheetsStore) Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for sheets quota: %w", err)
	}
	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return rows, nil
}

// Write overwrites the range with a single row of values.
func (s *SheetsStore) Write(ctx context.Context, spreadsheetID, rng string, values []string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for sheets quota: %w", err)
	}
	_, err := s.service.Spreadsheets.Values.Update(spreadsheetID, rng, valueRange(values)).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", rng, err)
	}
	return nil
}

// Append adds one row after the last row of the table found in rng.
func (s *SheetsStore) Append(ctx context.Context, spreadsheetID, rng string, values []string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for sheets quota: %w", err)
	}
	_, err := s.service.Spreadsheets.Values.Append(spreadsheetID, rng, valueRange(values)).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", rng, err)
	}
	return nil
}

func valueRange(values []string) *sheets.ValueRange {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &sheets.ValueRange{Values: [][]interface{}{row}}
}
