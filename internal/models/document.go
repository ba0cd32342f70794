package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Channel identifies how a document reached the pipeline.
type Channel string

const (
	ChannelUpload  Channel = "upload"
	ChannelStorage Channel = "storage"
	ChannelEmail   Channel = "email"
)

// Category is the classifier's verdict for a document.
type Category string

const (
	CategoryResume    Category = "RESUME"
	CategoryNonResume Category = "NON_RESUME"
)

// InboundDocument is one submitted file. It is built once per pipeline run
// and never mutated after extraction.
type InboundDocument struct {
	Filename    string
	Data        []byte
	Text        string
	Truncated   bool
	ContentHash string
	ToEmail     string
	Channel     Channel
	// Pointer is the object-store key holding the raw bytes, if stored.
	Pointer string
}

// ContentToken returns the idempotency token for raw document bytes.
func ContentToken(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// PointerToken returns the ledger token recorded for a storage pointer.
func PointerToken(pointer string) string {
	if pointer == "" {
		return ""
	}
	return "key:" + pointer
}

// Rejection reasons surfaced to callers before any side effect is attempted.
const (
	ReasonUnsupportedFileType = "unsupported_file_type"
	ReasonMissingField        = "missing_field"
	ReasonFileTooLarge        = "file_too_large"
	ReasonSubmissionTooLarge  = "submission_too_large"
	ReasonTooManyAttachments  = "too_many_attachments"
	ReasonEmptyFile           = "empty_file"
	ReasonInvalidField        = "invalid_field"
	ReasonNotFound            = "not_found"
)

// ErrRejected is the sentinel wrapped by every RejectionError.
var ErrRejected = errors.New("input rejected")

// RejectionError describes input refused before the pipeline ran.
type RejectionError struct {
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *RejectionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("rejected: %s (%s): %s", e.Reason, e.Field, e.Message)
	}
	return fmt.Sprintf("rejected: %s: %s", e.Reason, e.Message)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

// NewRejection creates a RejectionError.
func NewRejection(reason, field, message string) *RejectionError {
	return &RejectionError{Reason: reason, Field: field, Message: message}
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
}

// Extension returns the lower-cased filename extension including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// CheckFileType enforces the intake allowlist by filename extension.
func CheckFileType(filename string) error {
	ext := Extension(filename)
	if !allowedExtensions[ext] {
		return NewRejection(ReasonUnsupportedFileType, "filename",
			fmt.Sprintf("file type %q is not supported; allowed: .pdf, .txt, .docx", ext))
	}
	return nil
}
