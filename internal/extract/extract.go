// Package extract turns e-mail attachments into searchable text.
//
// Only attachments whose extension is allowed and whose size is within the
// limit are read. Everything else is skipped silently.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daviddao/permmatch/internal/types"
)

// ErrSkipped is returned for attachments outside the extension or size gate.
var ErrSkipped = errors.New("attachment skipped")

// DefaultMaxSize is the largest attachment extracted, in bytes.
const DefaultMaxSize = 5 << 20

// Config holds the attachment gate.
type Config struct {
	AllowedExtensions []string `koanf:"allowed_extensions" yaml:"allowed_extensions"`
	MaxSize           int64    `koanf:"max_size" yaml:"max_size"`
}

// DefaultConfig returns the stock gate: plain text, HTML, CSV, Word, Excel and
// PDF up to 5 MiB.
func DefaultConfig() Config {
	return Config{
		AllowedExtensions: []string{".txt", ".html", ".csv", ".docx", ".xlsx", ".pdf"},
		MaxSize:           DefaultMaxSize,
	}
}

// Extractor applies the gate and dispatches to a format decoder.
type Extractor struct {
	allowed []string
	maxSize int64
}

// New builds an Extractor from cfg.
func New(cfg Config) *Extractor {
	e := &Extractor{maxSize: cfg.MaxSize}
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.allowed = append(e.allowed, ext)
	}
	return e
}

// Extension returns the allowed extension filename ends with.
func (e *Extractor) Extension(filename string) (string, bool) {
	low := strings.ToLower(strings.TrimSpace(filename))
	for _, ext := range e.allowed {
		if strings.HasSuffix(low, ext) {
			return ext, true
		}
	}
	return "", false
}

// Accepts reports whether an attachment passes the gate.
func (e *Extractor) Accepts(filename string, size int64) bool {
	if _, ok := e.Extension(filename); !ok {
		return false
	}
	return e.maxSize <= 0 || size <= e.maxSize
}

// Text extracts the text of one attachment. It returns ErrSkipped when the
// attachment is outside the gate.
func (e *Extractor) Text(filename string, data []byte) (string, error) {
	if !e.Accepts(filename, int64(len(data))) {
		return "", ErrSkipped
	}
	ext, _ := e.Extension(filename)

	switch ext {
	case ".txt", ".csv":
		return decodeText(data), nil
	case ".html", ".htm":
		return HTMLToText(decodeText(data)), nil
	case ".docx":
		return docxText(data, e.maxSize*docxExpansion)
	case ".xlsx":
		return xlsxText(data)
	case ".pdf":
		return pdfText(data)
	default:
		return decodeText(data), nil
	}
}

// Attachment builds the attachment record for filename. Skipped attachments
// and extraction failures carry no text; failures record the cause in Err.
func (e *Extractor) Attachment(filename string, data []byte) types.Attachment {
	ext, _ := e.Extension(filename)
	a := types.Attachment{
		Filename:  filename,
		Extension: ext,
		Size:      int64(len(data)),
	}
	text, err := e.Text(filename, data)
	switch {
	case errors.Is(err, ErrSkipped):
	case err != nil:
		a.Err = fmt.Sprintf("extract %s: %v", filename, err)
	default:
		a.Text = text
		a.Extracted = true
	}
	return a
}
