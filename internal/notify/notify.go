// Package notify decides and sends the single customer message for a
// confirmed ledger increment.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

//go:generate moq -out sender_mock_test.go -pkg notify . Sender

// Suppression reasons recorded on a NotificationEvent of kind none.
const (
	SuppressedDisabled       = "notifications_disabled"
	SuppressedNotIncremented = "not_incremented"
	SuppressedNoAddress      = "no_report_address"
	SuppressedReceiptOff     = "receipt_disabled"
)

const maxListItems = 4

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. There is exactly one implementation per deployment.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config controls which messages are sent.
type Config struct {
	Enabled       bool
	ReceiptOnSkip bool
}

// Dispatcher turns pipeline results into at most one message each.
type Dispatcher struct {
	sender Sender
	config Config
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender Sender, cfg Config) *Dispatcher {
	return &Dispatcher{sender: sender, config: cfg}
}

// Decide derives the notification for r without side effects.
func (d *Dispatcher) Decide(r *models.PipelineResult) models.NotificationEvent {
	return Decide(r, d.config)
}

// Decide derives the notification for r. A message is produced only for a
// confirmed ledger increment.
func Decide(r *models.PipelineResult, cfg Config) models.NotificationEvent {
	none := func(reason string) models.NotificationEvent {
		return models.NotificationEvent{Kind: models.NotifyNone, Suppressed: reason}
	}
	if !cfg.Enabled {
		return none(SuppressedDisabled)
	}
	if r.Ledger.Status != models.LedgerIncremented || !r.Ledger.Incremented {
		return none(SuppressedNotIncremented)
	}
	if r.Customer == nil || strings.TrimSpace(r.Customer.ReportEmail) == "" {
		return none(SuppressedNoAddress)
	}
	to := strings.TrimSpace(r.Customer.ReportEmail)

	if score, ok := r.Scoring.UsableScore(); ok {
		return models.NotificationEvent{
			Kind:    models.NotifyScored,
			To:      to,
			Subject: fmt.Sprintf("Resume scored %s: %s", formatScore(score), r.Filename),
			Body:    scoredBody(r, score),
		}
	}
	if !cfg.ReceiptOnSkip {
		return none(SuppressedReceiptOff)
	}
	return models.NotificationEvent{
		Kind:    models.NotifyReceipt,
		To:      to,
		Subject: fmt.Sprintf("Resume received: %s", r.Filename),
		Body:    receiptBody(r),
	}
}

// Dispatch sends ev once. Errors are logged and returned for diagnostics;
// callers must not retry.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.NotificationEvent) error {
	if ev.Kind == models.NotifyNone {
		return nil
	}
	logCtx := slog.With("notificationKind", ev.Kind, "to", ev.To)
	if d.sender == nil {
		logCtx.Warn("No notification sender configured; message dropped.")
		return fmt.Errorf("no notification sender configured")
	}
	if err := d.sender.Send(ctx, Message{To: ev.To, Subject: ev.Subject, Body: ev.Body}); err != nil {
		logCtx.Error("Failed to send notification.", "error", err)
		return fmt.Errorf("failed to send %s notification: %w", ev.Kind, err)
	}
	logCtx.Info("Notification sent.")
	return nil
}

func scoredBody(r *models.PipelineResult, score float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n", greetingName(r))
	fmt.Fprintf(&sb, "We received and scored a resume for you today.\n\n")
	fmt.Fprintf(&sb, "Score: %s\n", formatScore(score))
	if s := strings.TrimSpace(r.Scoring.Summary); s != "" {
		fmt.Fprintf(&sb, "\nSummary:\n%s\n", s)
	}
	writeList(&sb, "Strengths", r.Scoring.Strengths)
	writeList(&sb, "Weaknesses", r.Scoring.Weaknesses)
	writeReference(&sb, r)
	return sb.String()
}

func receiptBody(r *models.PipelineResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n", greetingName(r))
	fmt.Fprintf(&sb, "We received a resume for you and added it to today's count (%d so far).\n", r.Ledger.Count)
	writeReference(&sb, r)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
		if len(kept) == maxListItems {
			break
		}
	}
	if len(kept) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, it := range kept {
		fmt.Fprintf(sb, "- %s\n", it)
	}
}

func writeReference(sb *strings.Builder, r *models.PipelineResult) {
	fmt.Fprintf(sb, "\nDocument: %s\n", r.Filename)
	if r.Pointer != "" {
		fmt.Fprintf(sb, "Stored as: %s\n", r.Pointer)
	}
	fmt.Fprintf(sb, "Reference: %s\n", r.DocumentID)
}

func greetingName(r *models.PipelineResult) string {
	if r.Customer != nil && r.Customer.Name != "" {
		return r.Customer.Name
	}
	return "there"
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
