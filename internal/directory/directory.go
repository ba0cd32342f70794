// Package directory resolves intake addresses to tenant records and derives
// billing decisions from their status.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/models"
)

//go:generate moq -out table_mock_test.go -pkg directory . table

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("customer not found")
	// ErrUnavailable is returned when the directory store cannot be read.
	ErrUnavailable = errors.New("customer directory unavailable")
)

// Directory sheet columns, A through K.
const (
	colCustomerID = iota
	colName
	colIntakeEmail
	colReportEmail
	colStatus
	colTrialStart
	colTrialEnd
	colLedgerID
	colPaymentCustomerID
	colPaymentSubscriptionID
	colTimeZone
)

const statusColumn = "E"

type table interface {
	Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	Write(ctx context.Context, spreadsheetID, rng string, values []string) error
}

// Directory is the cached view of the customer directory sheet.
type Directory struct {
	table         table
	spreadsheetID string
	rng           string
	tab           string
	firstRow      int
	cache         *Cache[[]models.CustomerRecord]
}

// New creates a Directory reading cfg.Range of cfg.SpreadsheetID.
func New(t table, cfg config.DirectoryConfig) *Directory {
	d := &Directory{
		table:         t,
		spreadsheetID: cfg.SpreadsheetID,
		rng:           cfg.Range,
		tab:           cfg.Tab,
		firstRow:      firstRow(cfg.Range),
	}
	d.cache = NewCache(cfg.TTL, d.load)
	return d
}

func (d *Directory) load(ctx context.Context) ([]models.CustomerRecord, error) {
	rows, err := d.table.Read(ctx, d.spreadsheetID, d.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer directory: %w", err)
	}
	records := make([]models.CustomerRecord, 0, len(rows))
	for i, row := range rows {
		rec := parseRecord(row)
		if rec.CustomerID == "" && rec.IntakeEmail == "" {
			continue
		}
		rec.SheetRow = d.firstRow + i
		records = append(records, rec)
	}
	slog.Info("Customer directory refreshed.", "records", len(records))
	return records, nil
}

// Records returns every directory record in sheet order.
func (d *Directory) Records(ctx context.Context) ([]models.CustomerRecord, error) {
	records, err := d.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return records, nil
}

// Resolve finds the tenant whose intake address matches, ignoring case.
// When several records share an address the last one in sheet order wins.
func (d *Directory) Resolve(ctx context.Context, address string) (models.CustomerRecord, error) {
	want := normalizeAddress(address)
	if want == "" {
		return models.CustomerRecord{}, ErrNotFound
	}
	records, err := d.Records(ctx)
	if err != nil {
		return models.CustomerRecord{}, err
	}
	return lastMatch(records, func(r models.CustomerRecord) bool {
		return normalizeAddress(r.IntakeEmail) == want
	})
}

// Lookup finds a tenant by customer ID.
func (d *Directory) Lookup(ctx context.Context, customerID string) (models.CustomerRecord, error) {
	want := strings.TrimSpace(customerID)
	if want == "" {
		return models.CustomerRecord{}, ErrNotFound
	}
	records, err := d.Records(ctx)
	if err != nil {
		return models.CustomerRecord{}, err
	}
	return lastMatch(records, func(r models.CustomerRecord) bool {
		return r.CustomerID == want
	})
}

// UpdateStatus writes a new billing status for the tenant and invalidates
// the cache so the next read observes it.
func (d *Directory) UpdateStatus(ctx context.Context, customerID, status string) (models.CustomerRecord, error) {
	rec, err := d.Lookup(ctx, customerID)
	if err != nil {
		return models.CustomerRecord{}, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	cell := fmt.Sprintf("%s!%s%d", d.tab, statusColumn, rec.SheetRow)
	if err := d.table.Write(ctx, d.spreadsheetID, cell, []string{status}); err != nil {
		return models.CustomerRecord{}, fmt.Errorf("failed to write billing status for %s: %w", customerID, err)
	}
	d.Invalidate()

	slog.Info("Customer billing status updated.", "customerId", rec.CustomerID, "from", rec.BillingStatus, "to", status)
	rec.BillingStatus = status
	return rec, nil
}

// Invalidate drops the cached directory.
func (d *Directory) Invalidate() {
	d.cache.Invalidate()
}

func lastMatch(records []models.CustomerRecord, match func(models.CustomerRecord) bool) (models.CustomerRecord, error) {
	for i := len(records) - 1; i >= 0; i-- {
		if match(records[i]) {
			return records[i], nil
		}
	}
	return models.CustomerRecord{}, ErrNotFound
}

func parseRecord(row []string) models.CustomerRecord {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return models.CustomerRecord{
		CustomerID:            cell(colCustomerID),
		Name:                  cell(colName),
		IntakeEmail:           cell(colIntakeEmail),
		ReportEmail:           cell(colReportEmail),
		BillingStatus:         strings.ToLower(cell(colStatus)),
		TrialStart:            cell(colTrialStart),
		TrialEnd:              cell(colTrialEnd),
		LedgerID:              cell(colLedgerID),
		PaymentCustomerID:     cell(colPaymentCustomerID),
		PaymentSubscriptionID: cell(colPaymentSubscriptionID),
		TimeZone:              cell(colTimeZone),
	}
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// firstRow extracts the starting row number from an A1 range such as
// "Customers!A2:K". It defaults to 1.
func firstRow(rng string) int {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	start, _, _ := strings.Cut(rng, ":")
	digits := strings.TrimLeftFunc(start, unicode.IsLetter)
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
