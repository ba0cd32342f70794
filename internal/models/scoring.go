package models

import "math"

// ScoringStatus is the terminal state of a scoring attempt.
type ScoringStatus string

const (
	ScoringScored  ScoringStatus = "scored"
	ScoringSkipped ScoringStatus = "skipped"
	ScoringFailed  ScoringStatus = "failed"
)

// Skip and error reasons attached to a ScoringResult.
const (
	SkipNonResume          = "non_resume"
	SkipTooShort           = "too_short"
	SkipTooLarge           = "too_large"
	SkipBillingBlocked     = "billing_blocked"
	SkipAlreadyScoredToday = "already_scored_today"
	SkipDisabled           = "scoring_disabled"
	SkipUnresolved         = "customer_unresolved"
	FailUpstreamQuota      = "upstream_quota"
	FailUpstreamAuth       = "upstream_auth"
	FailUpstreamError      = "upstream_error"
	FailParse              = "parse_failure"
)

// ScoringResult is either a structured score or a tagged skip/error.
type ScoringResult struct {
	Status     ScoringStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Score      *float64      `json:"score,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Strengths  []string      `json:"strengths,omitempty"`
	Weaknesses []string      `json:"weaknesses,omitempty"`
	Raw        string        `json:"raw,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// UsableScore reports the score when the result carries a finite number.
func (r ScoringResult) UsableScore() (float64, bool) {
	if r.Status != ScoringScored || r.Score == nil {
		return 0, false
	}
	v := *r.Score
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Skipped builds a skip result for the given reason.
func Skipped(reason string) ScoringResult {
	return ScoringResult{Status: ScoringSkipped, Reason: reason}
}
