// Package classify decides whether extracted text is a resume using weighted
// keyword signals. All functions are pure.
package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

// MinLetters is the alphabetic character floor below which text is never a resume.
const MinLetters = 80

const (
	strongWeight = 3
	weakWeight   = 1
	nonWeight    = 3
)

var (
	strongIndicators = []string{
		"work experience",
		"professional experience",
		"employment history",
		"work history",
		"education",
		"skills",
		"curriculum vitae",
		"resume",
		"résumé",
		"linkedin",
	}
	weakIndicators = []string{
		"achievements",
		"references",
		"bachelor",
		"master's",
		"degree",
		"certifications",
		"projects",
		"gpa",
	}
	nonResumeIndicators = []string{
		"invoice",
		"bill to",
		"purchase order",
		"amount due",
		"total due",
		"payment terms",
		"subtotal",
		"remit to",
	}
)

// Explanation carries the intermediate scores behind a classification.
type Explanation struct {
	Category  models.Category `json:"category"`
	Letters   int             `json:"letters"`
	Resume    int             `json:"resumeScore"`
	NonResume int             `json:"nonResumeScore"`
	Strong    []string        `json:"strong,omitempty"`
	Weak      []string        `json:"weak,omitempty"`
	Negative  []string        `json:"negative,omitempty"`
}

// Classify returns the category for text.
func Classify(text string) models.Category {
	return Explain(text).Category
}

// Explain classifies text and reports the matched indicators.
func Explain(text string) Explanation {
	exp := Explanation{Category: models.CategoryNonResume, Letters: countLetters(text)}
	if exp.Letters < MinLetters {
		return exp
	}

	lower := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	exp.Strong = matches(lower, strongIndicators)
	exp.Weak = matches(lower, weakIndicators)
	exp.Negative = matches(lower, nonResumeIndicators)
	exp.Resume = len(exp.Strong)*strongWeight + len(exp.Weak)*weakWeight
	exp.NonResume = len(exp.Negative) * nonWeight

	switch {
	case len(exp.Strong) > 0 && exp.NonResume < exp.Resume:
		exp.Category = models.CategoryResume
	case exp.Resume >= 3 && exp.NonResume <= exp.Resume:
		exp.Category = models.CategoryResume
	case exp.NonResume >= 3 && exp.NonResume > exp.Resume:
		exp.Category = models.CategoryNonResume
	default:
		exp.Category = models.CategoryNonResume
	}
	return exp
}

func countLetters(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func matches(lower string, indicators []string) []string {
	var found []string
	for _, ind := range indicators {
		if containsWord(lower, ind) {
			found = append(found, ind)
		}
	}
	return found
}

// containsWord reports whether phrase occurs in s with no letter or digit
// directly before or after it.
func containsWord(s, phrase string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
