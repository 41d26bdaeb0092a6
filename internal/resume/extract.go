// Package resume pulls plain text out of uploaded resume documents.
package resume

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/abhisek/mockprep/internal/interview"
)

// MaxFileSize bounds an uploaded resume.
const MaxFileSize = 5 << 20

// Extractor converts resume files to text.
type Extractor struct {
	// MaxBytes overrides MaxFileSize when positive.
	MaxBytes int64
}

// Supported reports whether a file extension can be converted.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".doc", ".rtf", ".odt", ".txt", ".md":
		return true
	}
	return false
}

// Extract reads the whole document and returns its text with runs of
// blank lines collapsed. Caller problems (wrong type, too large, nothing
// readable) come back as KindValidation errors.
func (e Extractor) Extract(filename string, r io.Reader) (string, error) {
	const op = "extract resume"
	ext := strings.ToLower(filepath.Ext(filename))
	if !Supported(filename) {
		return "", invalid(op, fmt.Sprintf("unsupported file type %q; upload a PDF, DOCX or text file", ext), nil)
	}

	limit := e.MaxBytes
	if limit <= 0 {
		limit = MaxFileSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if int64(len(data)) > limit {
		return "", invalid(op, fmt.Sprintf("file exceeds maximum of %dMB", limit>>20), nil)
	}

	var text string
	switch ext {
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", invalid(op, "text file is not valid UTF-8", nil)
		}
		text = string(data)
	default:
		res, err := docconv.Convert(bytes.NewReader(data), docconv.MimeTypeByExtension(filename), true)
		if err != nil {
			return "", invalid(op, fmt.Sprintf("failed to parse %s file; please ensure it is a valid document", strings.TrimPrefix(ext, ".")), err)
		}
		text = res.Body
	}

	text = normalize(text)
	if text == "" {
		return "", invalid(op, "no text could be extracted from the file", nil)
	}
	return text, nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func invalid(op, msg string, err error) error {
	return &interview.Error{
		Kind:    interview.KindValidation,
		Op:      op,
		Message: msg,
		Fields:  map[string]string{"resume": msg},
		Err:     err,
	}
}
