// Package audit records every processed document on a best-effort basis.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

//go:generate moq -out writer_mock_test.go -pkg audit . writer

type writer interface {
	Write(ctx context.Context, rec models.AuditRecord) error
}

// BestEffort writes audit records with a bounded timeout and never fails
// the caller.
type BestEffort struct {
	writer  writer
	timeout time.Duration
	newID   func() string
}

// NewBestEffort wraps w. A nil w disables auditing.
func NewBestEffort(w writer, timeout time.Duration) *BestEffort {
	return &BestEffort{writer: w, timeout: timeout, newID: uuid.NewString}
}

// Record writes r and returns the audit ID, or an error for diagnostics.
// The error is already logged.
func (b *BestEffort) Record(ctx context.Context, r *models.PipelineResult) (string, error) {
	if b.writer == nil {
		return "", nil
	}
	id := b.newID()
	rec := models.NewAuditRecord(id, r)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if err := b.writer.Write(ctx, rec); err != nil {
		slog.Error("Failed to write audit record.", "auditId", id, "documentId", r.DocumentID, "error", err)
		return "", fmt.Errorf("failed to write audit record: %w", err)
	}
	return id, nil
}
