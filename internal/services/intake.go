package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/intakeledger/internal/classify"
	"github.com/Lllllllleong/intakeledger/internal/config"
	"github.com/Lllllllleong/intakeledger/internal/directory"
	"github.com/Lllllllleong/intakeledger/internal/extract"
	"github.com/Lllllllleong/intakeledger/internal/gcp"
	"github.com/Lllllllleong/intakeledger/internal/ledger"
	"github.com/Lllllllleong/intakeledger/internal/metrics"
	"github.com/Lllllllleong/intakeledger/internal/models"
	"github.com/Lllllllleong/intakeledger/internal/scoring"
)

//go:generate moq -out services_mock_test.go -pkg services . objectStore customerResolver mailSource statusUpdater

// Ledger and scoring skip reasons set by the pipeline itself.
const (
	ReasonBillingBlocked = "billing_blocked"
	ReasonUnresolved     = "customer_unresolved"
)

type objectStore interface {
	Put(ctx context.Context, key string, data []byte, metadata map[string]string) (bool, error)
	Stat(ctx context.Context, key string) (gcp.ObjectInfo, error)
	Get(ctx context.Context, key string, maxBytes int64) (gcp.Object, error)
}

type customerResolver interface {
	Resolve(ctx context.Context, address string) (models.CustomerRecord, error)
}

type scoringGateway interface {
	Score(ctx context.Context, req scoring.Request) models.ScoringResult
}

type ledgerRecorder interface {
	Day(customer models.CustomerRecord, now time.Time) string
	Record(ctx context.Context, entry ledger.Entry) models.LedgerOutcome
}

type notifier interface {
	Decide(r *models.PipelineResult) models.NotificationEvent
	Dispatch(ctx context.Context, ev models.NotificationEvent) error
}

type auditor interface {
	Record(ctx context.Context, r *models.PipelineResult) (string, error)
}

// Submission is one document handed to the pipeline.
type Submission struct {
	Filename string
	Data     []byte
	ToEmail  string
	Channel  models.Channel
	// Pointer is set when the bytes already live in the object store.
	Pointer string
}

// IntakeDeps are the collaborators of an IntakeFunction. Store, Notifier,
// Audit and Metrics may be nil.
type IntakeDeps struct {
	Store     objectStore
	Directory customerResolver
	Extractor *extract.Extractor
	Scoring   scoringGateway
	Ledger    ledgerRecorder
	Notifier  notifier
	Audit     auditor
	Metrics   *metrics.Metrics
	Limits    config.LimitsConfig
	// UploadPrefix is the object key prefix for stored submissions.
	UploadPrefix string
}

// IntakeFunction runs the single-document pipeline.
type IntakeFunction struct {
	deps  IntakeDeps
	now   func() time.Time
	newID func() string
}

// NewIntakeFunction creates an IntakeFunction.
func NewIntakeFunction(deps IntakeDeps) *IntakeFunction {
	if deps.Extractor == nil {
		deps.Extractor = extract.New(deps.Limits.MaxExtractChars)
	}
	return &IntakeFunction{deps: deps, now: time.Now, newID: uuid.NewString}
}

// Process runs one document end to end. The only error it returns is a
// *models.RejectionError for input refused before any side effect; every
// other failure is reported inside the result.
func (f *IntakeFunction) Process(ctx context.Context, sub Submission) (*models.PipelineResult, error) {
	if rej := f.validate(sub); rej != nil {
		f.deps.Metrics.ObserveRejection(rej.Reason)
		slog.Warn("Submission rejected.", "channel", sub.Channel, "filename", sub.Filename, "reason", rej.Reason)
		return nil, rej
	}

	// Side effects must complete even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	start := f.now()

	doc := models.InboundDocument{
		Filename:    strings.TrimSpace(sub.Filename),
		Data:        sub.Data,
		ContentHash: models.ContentToken(sub.Data),
		ToEmail:     strings.TrimSpace(sub.ToEmail),
		Channel:     sub.Channel,
		Pointer:     sub.Pointer,
	}
	r := &models.PipelineResult{
		DocumentID:  f.newID(),
		Filename:    doc.Filename,
		Channel:     doc.Channel,
		ContentHash: doc.ContentHash,
		ToEmail:     doc.ToEmail,
		ProcessedAt: start.UTC(),
	}
	logCtx := slog.With("documentId", r.DocumentID, "channel", doc.Channel, "contentHash", doc.ContentHash)
	logCtx.Info("Processing new document.", "filename", doc.Filename, "bytes", len(doc.Data))

	doc.Pointer = f.store(ctx, logCtx, doc, r)
	r.Pointer = doc.Pointer

	res := f.deps.Extractor.Extract(doc.Filename, doc.Data)
	if res.Err != nil {
		logCtx.Warn("Text extraction failed; continuing with empty text.", "format", res.Format, "error", res.Err)
		r.Diagnose("extract: " + res.Err.Error())
	}
	doc.Text, doc.Truncated = res.Text, res.Truncated
	r.TextChars = len([]rune(doc.Text))
	r.Truncated = doc.Truncated

	exp := classify.Explain(doc.Text)
	r.Category = exp.Category
	logCtx.Info("Document classified.", "category", exp.Category, "resumeScore", exp.Resume, "nonResumeScore", exp.NonResume)

	f.runTenantSteps(ctx, logCtx, doc, r)

	f.finish(ctx, logCtx, r)
	f.deps.Metrics.ObserveResult(r, f.now().Sub(start))
	logCtx.Info("Document processed.",
		"customerId", r.CustomerID(),
		"scoringStatus", r.Scoring.Status,
		"ledgerStatus", r.Ledger.Status,
		"notificationKind", r.Notification.Kind,
	)
	return r, nil
}

func (f *IntakeFunction) validate(sub Submission) *models.RejectionError {
	if strings.TrimSpace(sub.Filename) == "" {
		return models.NewRejection(models.ReasonMissingField, "filename", "a filename is required")
	}
	if err := models.CheckFileType(sub.Filename); err != nil {
		var rej *models.RejectionError
		if errors.As(err, &rej) {
			return rej
		}
		return models.NewRejection(models.ReasonUnsupportedFileType, "filename", err.Error())
	}
	if strings.TrimSpace(sub.ToEmail) == "" {
		return models.NewRejection(models.ReasonMissingField, "toEmail", "a target intake address is required")
	}
	if len(sub.Data) == 0 {
		return models.NewRejection(models.ReasonEmptyFile, "file", "the file is empty")
	}
	if max := f.deps.Limits.MaxAttachmentBytes; max > 0 && int64(len(sub.Data)) > max {
		return models.NewRejection(models.ReasonFileTooLarge, "file",
			fmt.Sprintf("file is %d bytes; the limit is %d", len(sub.Data), max))
	}
	return nil
}

// store keeps the raw bytes when they are not stored yet. Failure leaves the
// document without a pointer.
func (f *IntakeFunction) store(ctx context.Context, logCtx *slog.Logger, doc models.InboundDocument, r *models.PipelineResult) string {
	if doc.Pointer != "" || f.deps.Store == nil {
		return doc.Pointer
	}
	key := gcp.ObjectKey(f.deps.UploadPrefix, r.ProcessedAt, doc.Filename)
	metadata := map[string]string{
		gcp.MetadataToEmail: doc.ToEmail,
		"content-hash":      doc.ContentHash,
		"channel":           string(doc.Channel),
	}
	created, err := f.deps.Store.Put(ctx, key, doc.Data, metadata)
	if err != nil {
		logCtx.Error("Failed to store document; continuing without a pointer.", "gcsObject", key, "error", err)
		r.Diagnose("store: " + err.Error())
		return ""
	}
	logCtx.Info("Document stored.", "gcsObject", key, "created", created)
	return key
}

// runTenantSteps resolves the customer and runs gating, scoring and the
// ledger. Unresolved or blocked tenants stop here with tagged outcomes.
func (f *IntakeFunction) runTenantSteps(ctx context.Context, logCtx *slog.Logger, doc models.InboundDocument, r *models.PipelineResult) {
	customer, err := f.deps.Directory.Resolve(ctx, doc.ToEmail)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNotFound):
			logCtx.Warn("No customer for intake address.", "toEmail", doc.ToEmail)
			r.Diagnose("customer: not found for " + doc.ToEmail)
		default:
			logCtx.Error("Customer directory unavailable; continuing unresolved.", "error", err)
			r.Diagnose("customer: " + err.Error())
		}
		r.Billing = models.BillingDecision{Allowed: false, Reason: ReasonUnresolved}
		r.Scoring = models.Skipped(models.SkipUnresolved)
		r.Ledger = models.LedgerOutcome{Status: models.LedgerSkipped, Reason: ReasonUnresolved}
		return
	}
	r.Customer = &customer
	logCtx = logCtx.With("customerId", customer.CustomerID)

	r.Billing = directory.Gate(customer.BillingStatus)
	day := f.deps.Ledger.Day(customer, r.ProcessedAt)

	r.Scoring = f.deps.Scoring.Score(ctx, scoring.Request{
		Customer:  customer,
		Category:  r.Category,
		Text:      doc.Text,
		Truncated: doc.Truncated,
		Token:     doc.ContentHash,
		Day:       day,
		Billing:   r.Billing,
	})

	if !r.Billing.Allowed {
		logCtx.Info("Billing gate blocked tenant; ledger untouched.", "billingStatus", customer.BillingStatus)
		r.Ledger = models.LedgerOutcome{Status: models.LedgerSkipped, Date: day, Reason: ReasonBillingBlocked}
		return
	}

	entry := ledger.Entry{
		Customer: customer,
		Day:      day,
		Category: r.Category,
		Channel:  doc.Channel,
		Token:    doc.ContentHash,
		Pointer:  doc.Pointer,
	}
	if v, ok := r.Scoring.UsableScore(); ok {
		entry.Score = &v
	}
	r.Ledger = f.deps.Ledger.Record(ctx, entry)
	if r.Ledger.Err != nil {
		r.Diagnose("ledger: " + r.Ledger.Err.Error())
	}
}

// finish runs the independent final side effects over the settled result.
func (f *IntakeFunction) finish(ctx context.Context, logCtx *slog.Logger, r *models.PipelineResult) {
	if f.deps.Notifier != nil {
		ev := f.deps.Notifier.Decide(r)
		err := f.deps.Notifier.Dispatch(ctx, ev)
		f.deps.Metrics.ObserveNotification(ev.Kind, err)
		if err != nil {
			r.Diagnose("notify: " + err.Error())
		}
		r.Notification = ev
	} else {
		r.Notification = models.NotificationEvent{Kind: models.NotifyNone}
	}

	if f.deps.Audit != nil {
		if _, err := f.deps.Audit.Record(ctx, r); err != nil {
			f.deps.Metrics.ObserveAuditFailure()
			logCtx.Warn("Audit record not written.", "error", err)
			r.Diagnose("audit: " + err.Error())
		}
	}
}
