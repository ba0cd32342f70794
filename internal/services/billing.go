package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/intakeledger/internal/directory"
	"github.com/Lllllllleong/intakeledger/internal/models"
)

type statusUpdater interface {
	UpdateStatus(ctx context.Context, customerID, status string) (models.CustomerRecord, error)
}

// BillingFunction records billing status transitions in the directory.
type BillingFunction struct {
	directory statusUpdater
}

// NewBillingFunction creates a BillingFunction.
func NewBillingFunction(dir statusUpdater) *BillingFunction {
	return &BillingFunction{directory: dir}
}

// Process writes the new status and returns the gate decision it implies.
// The directory cache is invalidated by the write.
func (f *BillingFunction) Process(ctx context.Context, req models.BillingStatusRequest) (models.BillingDecision, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if customerID == "" {
		return models.BillingDecision{}, models.NewRejection(models.ReasonMissingField, "customerId", "a customer ID is required")
	}
	if status == "" {
		return models.BillingDecision{}, models.NewRejection(models.ReasonMissingField, "status", "a billing status is required")
	}
	if !directory.KnownStatus(status) {
		return models.BillingDecision{}, models.NewRejection(models.ReasonInvalidField, "status",
			fmt.Sprintf("unknown billing status %q", status))
	}

	logCtx := slog.With("customerId", customerID, "billingStatus", status)
	rec, err := f.directory.UpdateStatus(ctx, customerID, status)
	if errors.Is(err, directory.ErrNotFound) {
		return models.BillingDecision{}, models.NewRejection(models.ReasonNotFound, "customerId",
			fmt.Sprintf("customer %q does not exist", customerID))
	}
	if err != nil {
		logCtx.Error("Failed to update billing status.", "error", err)
		return models.BillingDecision{}, fmt.Errorf("failed to update billing status: %w", err)
	}

	decision := directory.Gate(status)
	logCtx.Info("Billing status updated.", "sheetRow", rec.SheetRow, "allowed", decision.Allowed)
	return decision, nil
}
