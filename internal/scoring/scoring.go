// Package scoring gates and invokes the external resume scorer.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

//go:generate moq -out scoring_mock_test.go -pkg scoring . Scorer rubricSource seenChecker

var (
	// ErrQuota marks an upstream rate-limit or quota rejection.
	ErrQuota = errors.New("scorer quota exceeded")
	// ErrAuth marks an upstream credential or permission rejection.
	ErrAuth = errors.New("scorer credentials rejected")
)

// Scorer sends resume text to the model and returns its raw response. A
// non-empty rubric is passed as a separate content part.
type Scorer interface {
	Generate(ctx context.Context, text, rubric string) (string, error)
}

type rubricSource interface {
	Rubric(ctx context.Context, customerID string) (string, error)
}

type seenChecker interface {
	Seen(ctx context.Context, customer models.CustomerRecord, day, token string) (bool, error)
}

// Config controls gating.
type Config struct {
	Enabled          bool
	StructuredRubric bool
	MinChars         int
	MaxChars         int
}

// Request is one scoring attempt.
type Request struct {
	Customer  models.CustomerRecord
	Category  models.Category
	Text      string
	Truncated bool
	Token     string
	Day       string
	Billing   models.BillingDecision
	// Rubric overrides the tenant rubric lookup when set.
	Rubric string
}

// Gateway applies the scoring gates and maps upstream failures to tagged results.
type Gateway struct {
	scorer  Scorer
	rubrics rubricSource
	seen    seenChecker
	config  Config
}

// NewGateway creates a Gateway. rubrics and seen may be nil.
func NewGateway(scorer Scorer, rubrics rubricSource, seen seenChecker, cfg Config) *Gateway {
	return &Gateway{scorer: scorer, rubrics: rubrics, seen: seen, config: cfg}
}

// Score never returns an error; every failure is a tagged ScoringResult.
func (g *Gateway) Score(ctx context.Context, req Request) models.ScoringResult {
	logCtx := slog.With("customerId", req.Customer.CustomerID, "contentHash", req.Token)

	if reason, skip := g.gate(ctx, logCtx, req); skip {
		logCtx.Info("Scoring skipped.", "reason", reason)
		return models.Skipped(reason)
	}

	rubric := req.Rubric
	if rubric == "" && g.rubrics != nil {
		r, err := g.rubrics.Rubric(ctx, req.Customer.CustomerID)
		if err != nil {
			logCtx.Warn("Failed to load tenant rubric; scoring without one.", "error", err)
		}
		rubric = r
	}

	text := strings.TrimSpace(req.Text)
	var raw string
	var err error
	if rubric != "" && !g.config.StructuredRubric {
		raw, err = g.scorer.Generate(ctx, withRubric(text, rubric), "")
	} else {
		raw, err = g.scorer.Generate(ctx, text, rubric)
	}
	if err != nil {
		res := models.ScoringResult{Status: models.ScoringFailed, Reason: classifyError(err), Detail: err.Error()}
		logCtx.Error("Scorer call failed.", "reason", res.Reason, "error", err)
		return res
	}

	res := Parse(raw)
	if res.Status == models.ScoringScored {
		logCtx.Info("Document scored.", "score", *res.Score)
	} else {
		logCtx.Warn("Scorer response could not be parsed.", "rawLength", len(raw))
	}
	return res
}

// gate returns the first skip reason that applies, in fixed order.
func (g *Gateway) gate(ctx context.Context, logCtx *slog.Logger, req Request) (string, bool) {
	if !req.Billing.Allowed {
		return models.SkipBillingBlocked, true
	}
	if req.Category != models.CategoryResume {
		return models.SkipNonResume, true
	}
	n := utf8.RuneCountInString(strings.TrimSpace(req.Text))
	if n < g.config.MinChars {
		return models.SkipTooShort, true
	}
	if n > g.config.MaxChars || req.Truncated {
		return models.SkipTooLarge, true
	}
	if !g.config.Enabled || g.scorer == nil {
		return models.SkipDisabled, true
	}
	if g.seen != nil && req.Token != "" {
		seen, err := g.seen.Seen(ctx, req.Customer, req.Day, req.Token)
		if err != nil {
			logCtx.Warn("Failed to check scoring idempotency; proceeding.", "error", err)
		} else if seen {
			return models.SkipAlreadyScoredToday, true
		}
	}
	return "", false
}

func withRubric(text, rubric string) string {
	var sb strings.Builder
	sb.WriteString("Scoring rubric for this employer:\n")
	sb.WriteString(rubric)
	sb.WriteString("\n\nResume:\n")
	sb.WriteString(text)
	return sb.String()
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, ErrQuota):
		return models.FailUpstreamQuota
	case errors.Is(err, ErrAuth):
		return models.FailUpstreamAuth
	default:
		return models.FailUpstreamError
	}
}

type response struct {
	Score      json.RawMessage `json:"score"`
	Summary    string          `json:"summary"`
	Strengths  []string        `json:"strengths"`
	Weaknesses []string        `json:"weaknesses"`
}

// Parse decodes a model response. Anything without a finite numeric score
// becomes a parse failure that keeps the raw text.
func Parse(raw string) models.ScoringResult {
	failed := models.ScoringResult{Status: models.ScoringFailed, Reason: models.FailParse, Raw: raw}

	var resp response
	if err := json.Unmarshal([]byte(StripFences(raw)), &resp); err != nil {
		failed.Detail = fmt.Sprintf("failed to unmarshal scorer response: %v", err)
		return failed
	}
	score, err := parseScore(resp.Score)
	if err != nil {
		failed.Detail = err.Error()
		return failed
	}
	return models.ScoringResult{
		Status:     models.ScoringScored,
		Score:      &score,
		Summary:    strings.TrimSpace(resp.Summary),
		Strengths:  resp.Strengths,
		Weaknesses: resp.Weaknesses,
	}
}

func parseScore(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("scorer response has no score")
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("score is not a number: %s", raw)
		}
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("score is not a number: %q", s)
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("score is not finite: %v", v)
	}
	return v, nil
}

// StripFences removes a surrounding ```json ... ``` block if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
