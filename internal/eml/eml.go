// Package eml parses RFC 5322 messages into the matcher's message model.
package eml

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/daviddao/permmatch/internal/extract"
	"github.com/daviddao/permmatch/internal/types"
)

// Parser turns raw messages into types.Message values.
type Parser struct {
	extractor *extract.Extractor
	log       *zap.Logger
}

// NewParser builds a Parser. A nil logger disables logging.
func NewParser(ex *extract.Extractor, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{extractor: ex, log: log}
}

// ParseFile parses the message stored at path.
func (p *Parser) ParseFile(path string, index int) (*types.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path), index)
}

// ParseBytes parses a message held in memory.
func (p *Parser) ParseBytes(raw []byte, file string, index int) (*types.Message, error) {
	return p.Parse(bytes.NewReader(raw), file, index)
}

// Parse reads one message from r. file names the message in reports and
// index is its position in the container.
func (p *Parser) Parse(r io.Reader, file string, index int) (*types.Message, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	for _, perr := range env.Errors {
		p.log.Debug("malformed mime part", zap.String("file", file), zap.String("error", perr.Error()))
	}

	msg := &types.Message{
		ID:      strings.Trim(env.GetHeader("Message-ID"), "<> "),
		File:    file,
		Index:   index,
		Date:    parseDate(env.GetHeader("Date")),
		Subject: strings.TrimSpace(env.GetHeader("Subject")),
		Body:    env.Text,
	}
	if strings.TrimSpace(msg.Body) == "" && env.HTML != "" {
		msg.Body = extract.HTMLToText(env.HTML)
	}

	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)
	for _, part := range parts {
		if part.FileName == "" {
			continue
		}
		a := p.extractor.Attachment(part.FileName, part.Content)
		if a.Err != "" {
			p.log.Warn("attachment skipped",
				zap.String("file", file),
				zap.String("attachment", a.Filename),
				zap.String("error", a.Err))
		}
		msg.Attachments = append(msg.Attachments, a)
	}
	return msg, nil
}

// parseDate returns the Date header in UTC, or the zero time when it is
// absent or unparseable.
func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	t, err := mail.ParseDate(v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
