package models

// LedgerStatus is the terminal state of one ledger interaction.
type LedgerStatus string

const (
	// LedgerIncremented means the count write for this document succeeded.
	LedgerIncremented LedgerStatus = "incremented"
	LedgerDuplicate   LedgerStatus = "duplicate"
	// LedgerNoted means the row was ensured and a note appended without counting.
	LedgerNoted   LedgerStatus = "noted"
	LedgerFailed  LedgerStatus = "failed"
	LedgerSkipped LedgerStatus = "skipped"
)

// LedgerDayRow is one tenant-day aggregate as read from the ledger sheet.
type LedgerDayRow struct {
	Row        int      `json:"row"`
	Date       string   `json:"date"`
	Count      int      `json:"count"`
	Notes      string   `json:"notes,omitempty"`
	CustomerID string   `json:"customerId,omitempty"`
	LastObject string   `json:"lastObject,omitempty"`
	Tokens     []string `json:"-"`
	LastScore  string   `json:"lastScore,omitempty"`
}

// HasToken reports whether token was already applied to the row.
func (r LedgerDayRow) HasToken(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range r.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// LedgerOutcome is what the ledger engine reports for a document.
type LedgerOutcome struct {
	Status      LedgerStatus `json:"status"`
	Date        string       `json:"date,omitempty"`
	Row         int          `json:"row,omitempty"`
	Count       int          `json:"count"`
	Notes       string       `json:"notes,omitempty"`
	Incremented bool         `json:"incremented"`
	Reason      string       `json:"reason,omitempty"`
	Err         error        `json:"-"`
}
