package models

import "time"

// These structs define the JSON payloads accepted and returned by the
// intake HTTP functions.

// StoragePointerRequest names an object already placed in the object store.
type StoragePointerRequest struct {
	Key     string `json:"key"`
	ToEmail string `json:"toEmail,omitempty"`
}

// ObjectEvent is the payload of a GCS object-finalized CloudEvent.
type ObjectEvent struct {
	Bucket   string            `json:"bucket"`
	Name     string            `json:"name"`
	Size     string            `json:"size,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PushEnvelope is a Pub/Sub push delivery.
type PushEnvelope struct {
	Message struct {
		Data        []byte            `json:"data"`
		MessageID   string            `json:"messageId"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		PublishTime time.Time         `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// MailNotification is the decoded data of an inbound-mail push.
type MailNotification struct {
	EmailID string `json:"emailId"`
}

// BillingStatusRequest records a billing status transition for a customer.
type BillingStatusRequest struct {
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
}

// IntakeResponse is returned by every intake function.
type IntakeResponse struct {
	Status    string            `json:"status"`
	Results   []*PipelineResult `json:"results,omitempty"`
	Rejected  []*RejectionError `json:"rejected,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Field  string `json:"field,omitempty"`
	Error  string `json:"error"`
}
