package config

import (
	"fmt"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("INTAKE_BUCKET environment variable must be set")
	}
	if c.Directory.SpreadsheetID == "" {
		return fmt.Errorf("DIRECTORY_SPREADSHEET_ID environment variable must be set")
	}
	if c.Directory.TTL <= 0 {
		return fmt.Errorf("directory.ttl must be > 0 (got %s)", c.Directory.TTL)
	}
	if err := c.Ledger.validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := c.Limits.validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	if c.Notify.Enabled && c.Notify.SenderAddress == "" {
		return fmt.Errorf("notify.sender_address must be set when notifications are enabled")
	}
	if c.Mail.Concurrency <= 0 {
		return fmt.Errorf("mail.concurrency must be > 0 (got %d)", c.Mail.Concurrency)
	}
	return nil
}

func (l *LedgerConfig) validate() error {
	if l.Window <= 0 {
		return fmt.Errorf("window must be > 0 (got %d)", l.Window)
	}
	if l.EnsureAttempts <= 0 {
		return fmt.Errorf("ensure_attempts must be > 0 (got %d)", l.EnsureAttempts)
	}
	if _, err := time.LoadLocation(l.DefaultTimeZone); err != nil {
		return fmt.Errorf("default_timezone %q: %w", l.DefaultTimeZone, err)
	}
	if l.SheetsRPS <= 0 {
		return fmt.Errorf("sheets_rps must be > 0 (got %v)", l.SheetsRPS)
	}
	return nil
}

func (l *LimitsConfig) validate() error {
	if l.MaxAttachmentBytes <= 0 || l.MaxSubmissionBytes <= 0 {
		return fmt.Errorf("byte caps must be > 0")
	}
	if l.MaxAttachmentBytes > l.MaxSubmissionBytes {
		return fmt.Errorf("max_attachment_bytes (%d) cannot exceed max_submission_bytes (%d)", l.MaxAttachmentBytes, l.MaxSubmissionBytes)
	}
	if l.MaxAttachments <= 0 {
		return fmt.Errorf("max_attachments must be > 0 (got %d)", l.MaxAttachments)
	}
	if l.MinScoreChars < 0 || l.MaxScoreChars <= l.MinScoreChars {
		return fmt.Errorf("score char bounds invalid: min=%d max=%d", l.MinScoreChars, l.MaxScoreChars)
	}
	if l.MaxExtractChars <= 0 {
		return fmt.Errorf("max_extract_chars must be > 0 (got %d)", l.MaxExtractChars)
	}
	return nil
}
