package models

import "time"

// NotificationKind is the dispatcher's decision for one pipeline result.
type NotificationKind string

const (
	NotifyNone    NotificationKind = "none"
	NotifyReceipt NotificationKind = "receipt"
	NotifyScored  NotificationKind = "scored"
)

// NotificationEvent is derived from a PipelineResult and never feeds state back.
type NotificationEvent struct {
	Kind       NotificationKind `json:"kind"`
	To         string           `json:"to,omitempty"`
	Subject    string           `json:"subject,omitempty"`
	Body       string           `json:"-"`
	Suppressed string           `json:"suppressed,omitempty"`
}

// PipelineResult is the immutable summary of one document run. Only the
// final side-effect steps (notification, audit) consume it.
type PipelineResult struct {
	DocumentID  string    `json:"documentId"`
	Filename    string    `json:"filename"`
	Channel     Channel   `json:"channel"`
	ContentHash string    `json:"contentHash"`
	Pointer     string    `json:"pointer,omitempty"`
	ToEmail     string    `json:"toEmail,omitempty"`
	TextChars   int       `json:"textChars"`
	Truncated   bool      `json:"truncated,omitempty"`
	Category    Category  `json:"category"`
	ProcessedAt time.Time `json:"processedAt"`

	Customer *CustomerRecord `json:"customer,omitempty"`
	Billing  BillingDecision `json:"billing"`
	Scoring  ScoringResult   `json:"scoring"`
	Ledger   LedgerOutcome   `json:"ledger"`

	Notification NotificationEvent `json:"notification"`
	Diagnostics  []string          `json:"diagnostics,omitempty"`
}

// CustomerID returns the resolved customer ID or "".
func (r *PipelineResult) CustomerID() string {
	if r.Customer == nil {
		return ""
	}
	return r.Customer.CustomerID
}

// Diagnose appends a diagnostic string.
func (r *PipelineResult) Diagnose(msg string) {
	r.Diagnostics = append(r.Diagnostics, msg)
}
