package directory

import (
	"strings"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

// ReasonUnknownStatus marks a fail-open decision for an unrecognised status.
const ReasonUnknownStatus = "unknown_status"

// Gate maps a billing status to an allow/block decision. Unrecognised or
// empty statuses are allowed.
func Gate(status string) models.BillingDecision {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case models.StatusTrial, models.StatusTrialing, models.StatusActive:
		return models.BillingDecision{Allowed: true, Reason: s}
	case models.StatusTrialEnded, models.StatusPastDue, models.StatusCanceled, models.StatusUnpaid:
		return models.BillingDecision{Allowed: false, Reason: s}
	default:
		return models.BillingDecision{Allowed: true, Reason: ReasonUnknownStatus}
	}
}

// KnownStatus reports whether status is one the gate recognises.
func KnownStatus(status string) bool {
	return Gate(status).Reason != ReasonUnknownStatus
}
