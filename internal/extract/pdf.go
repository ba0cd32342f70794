package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	garbleSampleChars  = 2000
	garbleMinLetterPct = 5
)

// extractPDF dumps each page's content stream with pdfcpu into a temp dir
// and decodes the text-showing operators.
// pdfcpu can panic on damaged cross-reference data; that is reported as an
// extraction error.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	tempDir, err := os.MkdirTemp("", "intake-pdf-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ExtractContent(bytes.NewReader(data), tempDir, "document", nil, cfg); err != nil {
		return "", fmt.Errorf("failed to extract pdf content: %w", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return "", fmt.Errorf("failed to list extracted content: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool { return pageIndex(names[i]) < pageIndex(names[j]) })

	var sb strings.Builder
	for _, name := range names {
		stream, err := os.ReadFile(filepath.Join(tempDir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read content stream %s: %w", name, err)
		}
		sb.WriteString(contentStreamText(stream))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var pageNumberRegex = regexp.MustCompile(`(\d+)\D*$`)

// pageIndex orders "document_Content_page_10.txt" after "..._page_9.txt".
func pageIndex(name string) int {
	m := pageNumberRegex.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// isGarbled reports whether fewer than 5% of the first 2000 characters are
// letters, the signature of a font without a usable text encoding.
func isGarbled(text string) bool {
	var total, letters int
	for _, r := range text {
		if total == garbleSampleChars {
			break
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return false
	}
	return letters*100 < total*garbleMinLetterPct
}

// contentStreamText walks a PDF content stream and emits the operands of
// Tj, TJ, ' and ". Positioning operators become line breaks or spaces.
func contentStreamText(stream []byte) string {
	var (
		out     strings.Builder
		strs    []string
		nums    []float64
		inArray bool
	)
	newline := func() {
		s := out.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			out.WriteByte('\n')
		}
	}
	space := func() {
		s := out.String()
		if len(s) > 0 && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			out.WriteByte(' ')
		}
	}

	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := readLiteralString(stream[i:])
			strs = append(strs, s)
			i += n
		case c == '<' && i+1 < len(stream) && stream[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(stream) && stream[i+1] == '>':
			i += 2
		case c == '<':
			s, n := readHexString(stream[i:])
			strs = append(strs, s)
			i += n
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case c == '/':
			i++
			for i < len(stream) && !isPDFSpace(stream[i]) && !isPDFDelimiter(stream[i]) {
				i++
			}
		case c == '{' || c == '}' || c == ')' || c == '>':
			i++
		default:
			start := i
			for i < len(stream) && !isPDFSpace(stream[i]) && !isPDFDelimiter(stream[i]) {
				i++
			}
			tok := string(stream[start:i])
			if v, err := strconv.ParseFloat(tok, 64); err == nil {
				if inArray && v < -250 {
					strs = append(strs, " ")
				} else {
					nums = append(nums, v)
				}
				continue
			}

			switch tok {
			case "Tj", "TJ":
				out.WriteString(strings.Join(strs, ""))
			case "'", "\"":
				newline()
				out.WriteString(strings.Join(strs, ""))
			case "T*", "ET", "Tm":
				newline()
			case "Td", "TD":
				if len(nums) >= 2 && nums[len(nums)-1] != 0 {
					newline()
				} else {
					space()
				}
			case "ID":
				// Inline image data runs until the EI operator.
				if end := bytes.Index(stream[i:], []byte("EI")); end >= 0 {
					i += end + 2
				} else {
					i = len(stream)
				}
			}
			strs = strs[:0]
			nums = nums[:0]
		}
	}
	return out.String()
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// readLiteralString decodes a balanced "( ... )" string with escapes and
// returns it with the number of bytes consumed.
func readLiteralString(b []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	i := 0
	for i < len(b) {
		c := b[i]
		switch c {
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		case '\\':
			i++
			if i >= len(b) {
				return sb.String(), i
			}
			e := b[i]
			switch e {
			case 'n':
				sb.WriteByte('\n')
				i++
			case 'r':
				sb.WriteByte('\r')
				i++
			case 't':
				sb.WriteByte('\t')
				i++
			case 'b', 'f':
				i++
			case '\r', '\n':
				// Line continuation.
				i++
				if e == '\r' && i < len(b) && b[i] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					v := 0
					n := 0
					for n < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7' {
						v = v*8 + int(b[i]-'0')
						i++
						n++
					}
					sb.WriteRune(rune(v & 0xFF))
				} else {
					sb.WriteByte(e)
					i++
				}
			}
		default:
			if c < 0x80 {
				sb.WriteByte(c)
			} else {
				sb.WriteRune(rune(c))
			}
			i++
		}
	}
	return sb.String(), i
}

// readHexString decodes "<48656C6C6F>". Two-byte glyph codes with a zero
// high byte are read as UTF-16BE.
func readHexString(b []byte) (string, int) {
	end := bytes.IndexByte(b, '>')
	if end < 0 {
		return "", len(b)
	}
	var digits []byte
	for _, c := range b[1:end] {
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw := make([]byte, len(digits)/2)
	for i := range raw {
		v, _ := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		raw[i] = byte(v)
	}

	var sb strings.Builder
	if len(raw) >= 2 && len(raw)%2 == 0 && raw[0] == 0 {
		for i := 0; i+1 < len(raw); i += 2 {
			sb.WriteRune(rune(uint16(raw[i])<<8 | uint16(raw[i+1])))
		}
		return sb.String(), end + 1
	}
	for _, c := range raw {
		sb.WriteRune(rune(c))
	}
	return sb.String(), end + 1
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
