package notify

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

func scoredResult() *models.PipelineResult {
	score := 87.5
	return &models.PipelineResult{
		DocumentID: "doc-1",
		Filename:   "jane.pdf",
		Pointer:    "intake/2026-03-01T10:00:00Z_jane.pdf",
		Customer:   &models.CustomerRecord{CustomerID: "cust-1", Name: "Acme", ReportEmail: "boss@acme.test"},
		Scoring: models.ScoringResult{
			Status:     models.ScoringScored,
			Score:      &score,
			Summary:    "Solid.",
			Strengths:  []string{"s1", "s2", " ", "s3", "s4", "s5"},
			Weaknesses: []string{"w1"},
		},
		Ledger: models.LedgerOutcome{Status: models.LedgerIncremented, Incremented: true, Count: 3},
	}
}

var enabled = Config{Enabled: true, ReceiptOnSkip: true}

func TestDecide_Scored(t *testing.T) {
	t.Parallel()

	ev := Decide(scoredResult(), enabled)

	assert.Equal(t, models.NotifyScored, ev.Kind)
	assert.Equal(t, "boss@acme.test", ev.To)
	assert.Equal(t, "Resume scored 87.5: jane.pdf", ev.Subject)
	assert.Contains(t, ev.Body, "Score: 87.5")
	assert.Contains(t, ev.Body, "Summary:\nSolid.")
	assert.Contains(t, ev.Body, "- s4\n")
	assert.NotContains(t, ev.Body, "s5")
	assert.Equal(t, 4, strings.Count(ev.Body, "- s"))
	assert.Contains(t, ev.Body, "- w1\n")
	assert.Contains(t, ev.Body, "Stored as: intake/2026-03-01T10:00:00Z_jane.pdf")
	assert.Contains(t, ev.Body, "Reference: doc-1")
}

func TestDecide_Receipt(t *testing.T) {
	t.Parallel()

	r := scoredResult()
	r.Scoring = models.Skipped(models.SkipTooLarge)

	ev := Decide(r, enabled)
	assert.Equal(t, models.NotifyReceipt, ev.Kind)
	assert.Equal(t, "Resume received: jane.pdf", ev.Subject)
	assert.Contains(t, ev.Body, "(3 so far)")

	ev = Decide(r, Config{Enabled: true, ReceiptOnSkip: false})
	assert.Equal(t, models.NotifyNone, ev.Kind)
	assert.Equal(t, SuppressedReceiptOff, ev.Suppressed)
}

func TestDecide_NonFiniteScoreFallsBackToReceipt(t *testing.T) {
	t.Parallel()

	r := scoredResult()
	nan := math.NaN()
	r.Scoring.Score = &nan

	assert.Equal(t, models.NotifyReceipt, Decide(r, enabled).Kind)
}

func TestDecide_Suppressed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.PipelineResult)
		cfg    Config
		want   string
	}{
		{"disabled", func(*models.PipelineResult) {}, Config{}, SuppressedDisabled},
		{"duplicate", func(r *models.PipelineResult) {
			r.Ledger = models.LedgerOutcome{Status: models.LedgerDuplicate, Count: 3}
		}, enabled, SuppressedNotIncremented},
		{"noted", func(r *models.PipelineResult) {
			r.Ledger = models.LedgerOutcome{Status: models.LedgerNoted}
		}, enabled, SuppressedNotIncremented},
		{"partial failure", func(r *models.PipelineResult) {
			r.Ledger = models.LedgerOutcome{Status: models.LedgerFailed, Incremented: true}
		}, enabled, SuppressedNotIncremented},
		{"skipped", func(r *models.PipelineResult) {
			r.Ledger = models.LedgerOutcome{Status: models.LedgerSkipped}
		}, enabled, SuppressedNotIncremented},
		{"no customer", func(r *models.PipelineResult) { r.Customer = nil }, enabled, SuppressedNoAddress},
		{"no address", func(r *models.PipelineResult) { r.Customer.ReportEmail = " " }, enabled, SuppressedNoAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := scoredResult()
			tt.mutate(r)
			ev := Decide(r, tt.cfg)
			assert.Equal(t, models.NotifyNone, ev.Kind)
			assert.Equal(t, tt.want, ev.Suppressed)
		})
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	sender := &SenderMock{SendFunc: func(ctx context.Context, msg Message) error { return nil }}
	d := NewDispatcher(sender, enabled)
	ev := d.Decide(scoredResult())

	require.NoError(t, d.Dispatch(context.Background(), ev))
	require.Len(t, sender.SendCalls(), 1)
	msg := sender.SendCalls()[0].Msg
	assert.Equal(t, "boss@acme.test", msg.To)
	assert.Equal(t, ev.Subject, msg.Subject)

	require.NoError(t, d.Dispatch(context.Background(), models.NotificationEvent{Kind: models.NotifyNone}))
	assert.Len(t, sender.SendCalls(), 1)
}

func TestDispatch_FailureIsNotRetried(t *testing.T) {
	t.Parallel()

	sender := &SenderMock{SendFunc: func(ctx context.Context, msg Message) error {
		return errors.New("smtp 421")
	}}
	d := NewDispatcher(sender, enabled)

	err := d.Dispatch(context.Background(), d.Decide(scoredResult()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp 421")
	assert.Len(t, sender.SendCalls(), 1)

	err = NewDispatcher(nil, enabled).Dispatch(context.Background(), d.Decide(scoredResult()))
	assert.Error(t, err)
}
