// Package extract turns raw document bytes into plain text per format.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

// Formats recognised by the extractor.
const (
	FormatText = "text"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

// Result is the outcome of one extraction. Text is empty on any failure;
// Err carries the reason for diagnostics only.
type Result struct {
	Text      string
	Truncated bool
	Format    string
	Err       error
}

// Extractor converts supported files to text, capped at MaxChars runes.
type Extractor struct {
	MaxChars int
}

// New creates an Extractor with the given character cap.
func New(maxChars int) *Extractor {
	return &Extractor{MaxChars: maxChars}
}

// Extract never fails: unreadable input yields an empty Result.Text.
func (e *Extractor) Extract(filename string, data []byte) Result {
	var (
		res Result
		err error
	)
	switch models.Extension(filename) {
	case ".txt":
		res.Format = FormatText
		res.Text = decodeText(data)
	case ".pdf":
		res.Format = FormatPDF
		res.Text, err = extractPDF(data)
		if err == nil && isGarbled(res.Text) {
			err = fmt.Errorf("pdf text looks garbled; discarded")
			res.Text = ""
		}
	case ".docx":
		res.Format = FormatDOCX
		res.Text, err = extractDOCX(data)
	default:
		res.Err = fmt.Errorf("unsupported extension for %q", filename)
		return res
	}
	if err != nil {
		res.Text = ""
		res.Err = err
		return res
	}

	res.Text = strings.TrimSpace(res.Text)
	res.Text, res.Truncated = truncateRunes(res.Text, e.MaxChars)
	return res
}

func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
