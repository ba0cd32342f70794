package models

// Billing statuses understood by the billing gate.
const (
	StatusTrial      = "trial"
	StatusTrialing   = "trialing"
	StatusActive     = "active"
	StatusTrialEnded = "trial_ended"
	StatusPastDue    = "past_due"
	StatusCanceled   = "canceled"
	StatusUnpaid     = "unpaid"
)

// CustomerRecord is one tenant as stored in the customer directory sheet.
type CustomerRecord struct {
	CustomerID            string `json:"customerId"`
	Name                  string `json:"name"`
	IntakeEmail           string `json:"intakeEmail"`
	ReportEmail           string `json:"reportEmail"`
	BillingStatus         string `json:"billingStatus"`
	TrialStart            string `json:"trialStart,omitempty"`
	TrialEnd              string `json:"trialEnd,omitempty"`
	LedgerID              string `json:"ledgerId"`
	PaymentCustomerID     string `json:"paymentCustomerId,omitempty"`
	PaymentSubscriptionID string `json:"paymentSubscriptionId,omitempty"`
	TimeZone              string `json:"timeZone,omitempty"`

	// SheetRow is the 1-based sheet row the record was read from.
	SheetRow int `json:"-"`
}

// BillingDecision is the billing gate's verdict for a tenant.
type BillingDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
