package models

import "time"

// AuditRecord is the Firestore representation of one processed document.
type AuditRecord struct {
	ID               string    `firestore:"id"`
	CreatedAt        time.Time `firestore:"createdAt"`
	Channel          string    `firestore:"channel,omitempty"`
	Filename         string    `firestore:"filename,omitempty"`
	ContentHash      string    `firestore:"contentHash,omitempty"`
	Pointer          string    `firestore:"pointer,omitempty"`
	ToEmail          string    `firestore:"toEmail,omitempty"`
	CustomerID       string    `firestore:"customerId,omitempty"`
	Category         string    `firestore:"category,omitempty"`
	BillingAllowed   bool      `firestore:"billingAllowed"`
	BillingReason    string    `firestore:"billingReason,omitempty"`
	ScoringStatus    string    `firestore:"scoringStatus,omitempty"`
	ScoringReason    string    `firestore:"scoringReason,omitempty"`
	Score            *float64  `firestore:"score,omitempty"`
	LedgerStatus     string    `firestore:"ledgerStatus,omitempty"`
	LedgerDate       string    `firestore:"ledgerDate,omitempty"`
	LedgerCount      int       `firestore:"ledgerCount"`
	NotificationKind string    `firestore:"notificationKind,omitempty"`
	Diagnostics      []string  `firestore:"diagnostics,omitempty"`
}

// NewAuditRecord flattens a pipeline result for the audit sink.
func NewAuditRecord(id string, r *PipelineResult) AuditRecord {
	rec := AuditRecord{
		ID:               id,
		CreatedAt:        r.ProcessedAt,
		Channel:          string(r.Channel),
		Filename:         r.Filename,
		ContentHash:      r.ContentHash,
		Pointer:          r.Pointer,
		ToEmail:          r.ToEmail,
		CustomerID:       r.CustomerID(),
		Category:         string(r.Category),
		BillingAllowed:   r.Billing.Allowed,
		BillingReason:    r.Billing.Reason,
		ScoringStatus:    string(r.Scoring.Status),
		ScoringReason:    r.Scoring.Reason,
		LedgerStatus:     string(r.Ledger.Status),
		LedgerDate:       r.Ledger.Date,
		LedgerCount:      r.Ledger.Count,
		NotificationKind: string(r.Notification.Kind),
		Diagnostics:      r.Diagnostics,
	}
	if v, ok := r.Scoring.UsableScore(); ok {
		rec.Score = &v
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}
