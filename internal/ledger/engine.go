// Package ledger maintains the per-tenant daily row in the ledger sheet and
// owns increment idempotency.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/models"
)

// Ledger sheet columns. Row 1 is the header.
const (
	colDate       = "A"
	colCount      = "B"
	colNotes      = "C"
	colCustomerID = "D"
	colLastObject = "E"
	colTokens     = "F"
	colLastScore  = "G"

	headerRows = 1
	listSep    = ","

	// maxCellChars keeps list cells under the 50,000 character cell limit
	// of Google Sheets. The oldest entries are dropped first.
	maxCellChars = 45000
)

// ReasonNoLedger marks a tenant without a ledger handle.
const ReasonNoLedger = "no_ledger"

// ErrRowNotEnsured is returned when no row for the day could be found or created.
var ErrRowNotEnsured = errors.New("ledger row could not be ensured")

type table interface {
	Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	Write(ctx context.Context, spreadsheetID, rng string, values []string) error
	Append(ctx context.Context, spreadsheetID, rng string, values []string) error
}

// Entry is one document's contribution to the ledger.
type Entry struct {
	Customer models.CustomerRecord
	Day      string
	Category models.Category
	Channel  models.Channel
	Token    string
	Pointer  string
	Score    *float64
}

// Engine runs the ensure, check and apply protocol.
type Engine struct {
	table     table
	locker    Locker
	tab       string
	window    int
	attempts  int
	backoff   time.Duration
	defaultTZ *time.Location
}

type fieldWrite struct {
	col   string
	value string
}

// NewEngine creates an Engine. A nil locker disables per-tenant serialization.
func NewEngine(t table, locker Locker, cfg config.LedgerConfig) (*Engine, error) {
	loc, err := time.LoadLocation(cfg.DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load default time zone %q: %w", cfg.DefaultTimeZone, err)
	}
	attempts := cfg.EnsureAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Engine{
		table:     t,
		locker:    locker,
		tab:       cfg.Tab,
		window:    cfg.Window,
		attempts:  attempts,
		backoff:   cfg.EnsureBackoff,
		defaultTZ: loc,
	}, nil
}

// Day returns the tenant-local calendar date for now. The customer's zone
// is used when valid, then the configured default.
func (e *Engine) Day(customer models.CustomerRecord, now time.Time) string {
	loc := e.defaultTZ
	if customer.TimeZone != "" {
		if l, err := time.LoadLocation(customer.TimeZone); err == nil {
			loc = l
		} else {
			slog.Warn("Invalid customer time zone; using default.", "customerId", customer.CustomerID, "timeZone", customer.TimeZone)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(time.DateOnly)
}

// Seen reports whether token was already applied to the tenant's row for day.
func (e *Engine) Seen(ctx context.Context, customer models.CustomerRecord, day, token string) (bool, error) {
	if customer.LedgerID == "" {
		return false, nil
	}
	rows, err := e.readWindow(ctx, customer.LedgerID)
	if err != nil {
		return false, err
	}
	row, ok := findDay(rows, day)
	if !ok {
		return false, nil
	}
	return row.HasToken(token), nil
}

// Record applies one document to the ledger. It never returns an error;
// failures are reported in the outcome.
func (e *Engine) Record(ctx context.Context, entry Entry) models.LedgerOutcome {
	logCtx := slog.With("customerId", entry.Customer.CustomerID, "ledgerDay", entry.Day, "contentHash", entry.Token)

	if entry.Customer.LedgerID == "" {
		logCtx.Warn("Customer has no ledger; skipping ledger update.")
		return models.LedgerOutcome{Status: models.LedgerSkipped, Date: entry.Day, Reason: ReasonNoLedger}
	}

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, lockKey(entry.Customer.CustomerID, entry.Day))
		if err != nil {
			logCtx.Warn("Failed to acquire ledger lock; proceeding unlocked.", "error", err)
		} else {
			defer unlock()
		}
	}

	row, err := e.ensureRow(ctx, logCtx, entry)
	if err != nil {
		logCtx.Error("Failed to ensure ledger row.", "error", err)
		return failed(entry.Day, 0, err)
	}
	logCtx = logCtx.With("ledgerRow", row.Row)

	if entry.Category != models.CategoryResume {
		return e.note(ctx, logCtx, entry, row)
	}

	dup, tokens := e.isDuplicate(ctx, logCtx, entry, row)
	if dup {
		logCtx.Info("Duplicate document for today; ledger unchanged.", "count", row.Count)
		return models.LedgerOutcome{
			Status: models.LedgerDuplicate,
			Date:   row.Date,
			Row:    row.Row,
			Count:  row.Count,
			Notes:  row.Notes,
		}
	}
	row.Tokens = tokens
	return e.apply(ctx, logCtx, entry, row)
}

// ensureRow finds today's row among the most recent rows, appending one when
// missing. After an append the window is re-read so concurrent writers
// converge on the first matching row.
func (e *Engine) ensureRow(ctx context.Context, logCtx *slog.Logger, entry Entry) (models.LedgerDayRow, error) {
	backoff := e.backoff
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		row, err := e.findOrAppend(ctx, logCtx, entry)
		if err == nil {
			return row, nil
		}
		lastErr = err
		if attempt == e.attempts {
			break
		}
		logCtx.Warn("Ensure ledger row failed; retrying.", "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return models.LedgerDayRow{}, fmt.Errorf("%w: %v", ErrRowNotEnsured, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return models.LedgerDayRow{}, fmt.Errorf("%w after %d attempts: %v", ErrRowNotEnsured, e.attempts, lastErr)
}

func (e *Engine) findOrAppend(ctx context.Context, logCtx *slog.Logger, entry Entry) (models.LedgerDayRow, error) {
	ledgerID := entry.Customer.LedgerID
	rows, err := e.readWindow(ctx, ledgerID)
	if err != nil {
		return models.LedgerDayRow{}, err
	}
	if row, ok := findDay(rows, entry.Day); ok {
		return row, nil
	}

	values := []string{entry.Day, "0", "", entry.Customer.CustomerID, "", "", ""}
	if err := e.table.Append(ctx, ledgerID, e.tab+"!A:G", values); err != nil {
		return models.LedgerDayRow{}, fmt.Errorf("failed to append ledger row: %w", err)
	}
	logCtx.Info("Appended ledger row for new day.")

	rows, err = e.readWindow(ctx, ledgerID)
	if err != nil {
		return models.LedgerDayRow{}, err
	}
	if row, ok := findDay(rows, entry.Day); ok {
		return row, nil
	}
	return models.LedgerDayRow{}, fmt.Errorf("appended ledger row for %s not visible yet", entry.Day)
}

// isDuplicate re-reads the token cell and returns the freshest token set. A
// failed read falls back to the tokens from the ensure read, and otherwise
// counts the document: over-counting on a store hiccup is accepted,
// under-counting is not.
func (e *Engine) isDuplicate(ctx context.Context, logCtx *slog.Logger, entry Entry, row models.LedgerDayRow) (bool, []string) {
	cell := e.cell(colTokens, row.Row)
	values, err := e.table.Read(ctx, entry.Customer.LedgerID, cell)
	if err != nil {
		dup := row.HasToken(entry.Token)
		logCtx.Warn("Token check failed; using tokens from the row read.", "error", err, "duplicate", dup, "reviewedRisk", true)
		return dup, row.Tokens
	}
	current := models.LedgerDayRow{Tokens: splitList(firstCell(values))}
	return current.HasToken(entry.Token), current.Tokens
}

// apply writes count, notes, customer ID, last object and tokens as one
// range update so the count never moves without its token. The last score
// is written afterwards.
func (e *Engine) apply(ctx context.Context, logCtx *slog.Logger, entry Entry, row models.LedgerDayRow) models.LedgerOutcome {
	ledgerID := entry.Customer.LedgerID
	next := row.Count + 1
	notes := composeNotes(row.Notes, entry)

	lastObject := row.LastObject
	if entry.Pointer != "" {
		lastObject = entry.Pointer
	}
	tokens := capList(mergeTokens(row.Tokens, entry.Token, models.PointerToken(entry.Pointer)), maxCellChars)
	values := []string{strconv.Itoa(next), notes, entry.Customer.CustomerID, lastObject, strings.Join(tokens, listSep)}

	rng := fmt.Sprintf("%s!%s%d:%s%d", e.tab, colCount, row.Row, colTokens, row.Row)
	if err := e.table.Write(ctx, ledgerID, rng, values); err != nil {
		logCtx.Error("Failed to write ledger row.", "error", err)
		return failed(row.Date, row.Row, fmt.Errorf("failed to write count: %w", err))
	}

	out := models.LedgerOutcome{
		Status:      models.LedgerIncremented,
		Date:        row.Date,
		Row:         row.Row,
		Count:       next,
		Notes:       notes,
		Incremented: true,
	}
	if score, ok := finiteScore(entry.Score); ok {
		v := strconv.FormatFloat(score, 'f', -1, 64)
		if err := e.table.Write(ctx, ledgerID, e.cell(colLastScore, row.Row), []string{v}); err != nil {
			logCtx.Error("Failed to write ledger field.", "column", colLastScore, "error", err)
			out.Status = models.LedgerFailed
			out.Reason = "partial_write"
			out.Err = fmt.Errorf("failed to write column %s: %w", colLastScore, err)
			return out
		}
	}
	logCtx.Info("Ledger count incremented.", "count", next)
	return out
}

// note appends the category note for a document that is never counted.
func (e *Engine) note(ctx context.Context, logCtx *slog.Logger, entry Entry, row models.LedgerDayRow) models.LedgerOutcome {
	notes := composeNotes(row.Notes, entry)
	out := models.LedgerOutcome{
		Status: models.LedgerNoted,
		Date:   row.Date,
		Row:    row.Row,
		Count:  row.Count,
		Notes:  notes,
	}
	if notes == row.Notes {
		return out
	}
	if err := e.table.Write(ctx, entry.Customer.LedgerID, e.cell(colNotes, row.Row), []string{notes}); err != nil {
		logCtx.Error("Failed to write ledger note.", "error", err)
		return failed(row.Date, row.Row, fmt.Errorf("failed to write notes: %w", err))
	}
	logCtx.Info("Ledger note appended.", "category", entry.Category)
	return out
}

// readWindow reads the last window data rows. The date column is read first
// to find where the table ends.
func (e *Engine) readWindow(ctx context.Context, ledgerID string) ([]models.LedgerDayRow, error) {
	dates, err := e.table.Read(ctx, ledgerID, fmt.Sprintf("%s!%s%d:%s", e.tab, colDate, headerRows+1, colDate))
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger dates: %w", err)
	}
	if len(dates) == 0 {
		return nil, nil
	}
	last := headerRows + len(dates)
	first := max(headerRows+1, last-e.window+1)

	rng := fmt.Sprintf("%s!A%d:G%d", e.tab, first, last)
	values, err := e.table.Read(ctx, ledgerID, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger window: %w", err)
	}
	rows := make([]models.LedgerDayRow, 0, len(values))
	for i, v := range values {
		rows = append(rows, parseRow(first+i, v))
	}
	return rows, nil
}

func (e *Engine) cell(col string, row int) string {
	return fmt.Sprintf("%s!%s%d", e.tab, col, row)
}

func failed(day string, row int, err error) models.LedgerOutcome {
	return models.LedgerOutcome{Status: models.LedgerFailed, Date: day, Row: row, Reason: "store_error", Err: err}
}

func lockKey(customerID, day string) string {
	return "ledger:" + customerID + ":" + day
}

func findDay(rows []models.LedgerDayRow, day string) (models.LedgerDayRow, bool) {
	for _, r := range rows {
		if r.Date == day {
			return r, true
		}
	}
	return models.LedgerDayRow{}, false
}

func parseRow(sheetRow int, v []string) models.LedgerDayRow {
	cell := func(i int) string {
		if i < len(v) {
			return strings.TrimSpace(v[i])
		}
		return ""
	}
	count, err := strconv.Atoi(cell(1))
	if err != nil {
		count = 0
	}
	return models.LedgerDayRow{
		Row:        sheetRow,
		Date:       cell(0),
		Count:      count,
		Notes:      cell(2),
		CustomerID: cell(3),
		LastObject: cell(4),
		Tokens:     splitList(cell(5)),
		LastScore:  cell(6),
	}
}

func composeNotes(existing string, entry Entry) string {
	notes := splitList(existing)
	add := []string{fmt.Sprintf("%s:%s", entry.Channel, entry.Category)}
	if entry.Category == models.CategoryResume && entry.Pointer != "" {
		add = append(add, "file:"+entry.Pointer)
	}
	for _, n := range add {
		if !contains(notes, n) {
			notes = append(notes, n)
		}
	}
	return strings.Join(capList(notes, maxCellChars), listSep)
}

// capList drops leading entries until the joined list fits in limit.
func capList(list []string, limit int) []string {
	n := len(strings.Join(list, listSep))
	for len(list) > 1 && n > limit {
		n -= len(list[0]) + len(listSep)
		list = list[1:]
	}
	return list
}

func mergeTokens(existing []string, add ...string) []string {
	out := append([]string(nil), existing...)
	for _, t := range add {
		if t != "" && !contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, listSep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func firstCell(values [][]string) string {
	if len(values) == 0 || len(values[0]) == 0 {
		return ""
	}
	return values[0][0]
}

func finiteScore(score *float64) (float64, bool) {
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return 0, false
	}
	return *score, true
}
