package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/intakeledger/internal/audit"
	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/directory"
	"github.com/Lllllllleong/intakeledger/internal/ledger"
	"github.com/Lllllllleong/intakeledger/internal/metrics"
	"github.com/Lllllllleong/intakeledger/internal/models"
	"github.com/Lllllllleong/intakeledger/internal/notify"
	"github.com/Lllllllleong/intakeledger/internal/scoring"
)

const resumeText = `Jane Doe
Senior Software Engineer

Work Experience
Acme Corp, 2019 to present. Led the migration of the billing platform to Go
and cut p99 latency by forty percent. Mentored five engineers.

Education
Bachelor of Science in Computer Science, State University.

Skills
Go, PostgreSQL, Kubernetes, distributed systems, observability.`

const invoiceText = `INVOICE 2026-0042
Bill To: Acme Corp, 1 Main Street
Purchase Order: PO-7781
Payment Terms: Net 30
Subtotal: 1,200.00
Total Due: 1,320.00
Amount Due on receipt. Please remit to the account listed below.`

const scoredJSON = `{"score": 82, "summary": "Strong backend engineer.", "strengths": ["Go", "Mentoring"], "weaknesses": ["No frontend"]}`

// memSheet is an in-memory ledger tab speaking A1 ranges.
type memSheet struct {
	mu   sync.Mutex
	rows [][]string
}

func newMemSheet() *memSheet {
	return &memSheet{rows: [][]string{{"Date", "Count", "Notes", "CustomerID", "LastObject", "Tokens", "LastScore"}}}
}

func (m *memSheet) Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c0, r0, c1, r1 := parseA1(rng)
	var out [][]string
	for r := r0; r <= r1 && r <= len(m.rows); r++ {
		row := m.rows[r-1]
		var cells []string
		for c := c0; c <= c1 && c < len(row); c++ {
			cells = append(cells, row[c])
		}
		out = append(out, cells)
	}
	return out, nil
}

func (m *memSheet) Write(ctx context.Context, spreadsheetID, rng string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c0, r0, _, _ := parseA1(rng)
	for len(m.rows) < r0 {
		m.rows = append(m.rows, nil)
	}
	row := m.rows[r0-1]
	for len(row) < c0+len(values) {
		row = append(row, "")
	}
	copy(row[c0:], values)
	m.rows[r0-1] = row
	return nil
}

func (m *memSheet) Append(ctx context.Context, spreadsheetID, rng string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, append([]string(nil), values...))
	return nil
}

// dataRows returns the rows below the header.
func (m *memSheet) dataRows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, 0, len(m.rows)-1)
	for _, r := range m.rows[1:] {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

func parseA1(rng string) (c0, r0, c1, r1 int) {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	start, end, ok := strings.Cut(rng, ":")
	if !ok {
		end = start
	}
	c0, r0 = splitCell(start, 1)
	c1, r1 = splitCell(end, 1<<20)
	return c0, r0, c1, r1
}

func splitCell(ref string, defaultRow int) (int, int) {
	letters := strings.TrimRightFunc(ref, unicode.IsDigit)
	col := 0
	for _, ch := range letters {
		col = col*26 + int(ch-'A'+1)
	}
	row, err := strconv.Atoi(ref[len(letters):])
	if err != nil {
		row = defaultRow
	}
	return col - 1, row
}

type scorerStub struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (s *scorerStub) Generate(ctx context.Context, text, rubric string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.response, s.err
}

func (s *scorerStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type senderStub struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (s *senderStub) Send(ctx context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *senderStub) messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Message(nil), s.sent...)
}

type auditStub struct {
	mu      sync.Mutex
	records []models.AuditRecord
	err     error
}

func (a *auditStub) Write(ctx context.Context, rec models.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, rec)
	return nil
}

func (a *auditStub) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		MaxAttachmentBytes: 10 << 20,
		MaxSubmissionBytes: 25 << 20,
		MaxAttachments:     5,
		MaxExtractChars:    50000,
		MaxScoreChars:      30000,
		MinScoreChars:      200,
	}
}

// harness wires the real pipeline components over in-memory fakes.
type harness struct {
	intake    *IntakeFunction
	store     *objectStoreMock
	directory *customerResolverMock
	sheet     *memSheet
	scorer    *scorerStub
	sender    *senderStub
	audit     *auditStub
	metrics   *metrics.Metrics
}

func tenant(status string) models.CustomerRecord {
	return models.CustomerRecord{
		CustomerID:    "cust-1",
		Name:          "Acme",
		IntakeEmail:   "jobs@acme.test",
		ReportEmail:   "hr@acme.test",
		BillingStatus: status,
		LedgerID:      "ledger-1",
		SheetRow:      2,
	}
}

func newHarness(t *testing.T, customers ...models.CustomerRecord) *harness {
	t.Helper()

	h := &harness{
		sheet:   newMemSheet(),
		scorer:  &scorerStub{response: scoredJSON},
		sender:  &senderStub{},
		audit:   &auditStub{},
		metrics: metrics.New(),
	}
	h.store = &objectStoreMock{
		PutFunc: func(ctx context.Context, key string, data []byte, metadata map[string]string) (bool, error) {
			return true, nil
		},
	}
	h.directory = &customerResolverMock{
		ResolveFunc: func(ctx context.Context, address string) (models.CustomerRecord, error) {
			for _, c := range customers {
				if strings.EqualFold(c.IntakeEmail, strings.TrimSpace(address)) {
					return c, nil
				}
			}
			return models.CustomerRecord{}, directory.ErrNotFound
		},
	}

	engine, err := ledger.NewEngine(h.sheet, ledger.NewKeyedMutex(), config.LedgerConfig{
		Tab:             "Ledger",
		Window:          100,
		EnsureAttempts:  2,
		EnsureBackoff:   time.Millisecond,
		DefaultTimeZone: "UTC",
	})
	require.NoError(t, err)

	limits := testLimits()
	h.intake = NewIntakeFunction(IntakeDeps{
		Store:     h.store,
		Directory: h.directory,
		Scoring: scoring.NewGateway(h.scorer, nil, engine, scoring.Config{
			Enabled:          true,
			StructuredRubric: true,
			MinChars:         limits.MinScoreChars,
			MaxChars:         limits.MaxScoreChars,
		}),
		Ledger:       engine,
		Notifier:     notify.NewDispatcher(h.sender, notify.Config{Enabled: true, ReceiptOnSkip: true}),
		Audit:        audit.NewBestEffort(h.audit, time.Second),
		Metrics:      h.metrics,
		Limits:       limits,
		UploadPrefix: "intake/",
	})
	h.intake.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return h
}

// buildPDF renders lines as a single-page PDF with a correct xref table.
func buildPDF(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 11 Tf\n14 TL\n72 720 Td\n")
	for _, l := range lines {
		l = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(l)
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", l)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
