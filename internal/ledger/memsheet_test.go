package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// memSheet is an in-memory single-tab spreadsheet speaking A1 ranges.
type memSheet struct {
	mu   sync.Mutex
	rows [][]string

	readErr   func(rng string) error
	writeErr  func(rng string) error
	appendErr error

	writes  []string
	appends int
}

var _ table = (*memSheet)(nil)

func newMemSheet(rows ...[]string) *memSheet {
	all := [][]string{{"Date", "Count", "Notes", "CustomerID", "LastObject", "Tokens", "LastScore"}}
	return &memSheet{rows: append(all, rows...)}
}

func (m *memSheet) Read(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		if err := m.readErr(rng); err != nil {
			return nil, err
		}
	}
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
	if m.writeErr != nil {
		if err := m.writeErr(rng); err != nil {
			return err
		}
	}
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
	m.writes = append(m.writes, rng)
	return nil
}

func (m *memSheet) Append(ctx context.Context, spreadsheetID, rng string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, append([]string(nil), values...))
	m.appends++
	return nil
}

func (m *memSheet) cell(a1 string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, r, _, _ := parseA1(a1)
	if r > len(m.rows) || c >= len(m.rows[r-1]) {
		return ""
	}
	return m.rows[r-1][c]
}

func (m *memSheet) rowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memSheet) wrote(col string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.writes {
		if strings.HasPrefix(strings.TrimPrefix(w, "Ledger!"), col) {
			return true
		}
	}
	return false
}

// parseA1 returns zero-based columns and one-based rows. Open-ended ranges
// extend to a large bound.
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

func (m *memSheet) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprint(m.rows)
}
