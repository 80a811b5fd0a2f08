// Package archive loads the message corpus from a container: a zip, tar or
// 7z archive, a directory of .eml files, or a single .eml file.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mholt/archives"
	"go.uber.org/zap"

	"github.com/daviddao/permmatch/internal/eml"
	"github.com/daviddao/permmatch/internal/types"
)

// Loader reads messages from a container.
type Loader struct {
	parser *eml.Parser
	log    *zap.Logger
}

// NewLoader builds a Loader. A nil logger disables logging.
func NewLoader(p *eml.Parser, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{parser: p, log: log}
}

// IsMessage reports whether name is an e-mail file, including *.msg.eml.
func IsMessage(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".eml")
}

// Load returns every message of the container at path. Index is assigned in
// iteration order. Messages that fail to parse are logged and skipped.
func (l *Loader) Load(ctx context.Context, path string) ([]types.Message, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open messages: %w", err)
	}
	switch {
	case info.IsDir():
		return l.loadDir(ctx, path)
	case IsMessage(path):
		msg, err := l.parser.ParseFile(path, 0)
		if err != nil {
			return nil, err
		}
		return []types.Message{*msg}, nil
	default:
		return l.loadArchive(ctx, path)
	}
}

func (l *Loader) loadArchive(ctx context.Context, path string) ([]types.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	format, _, err := archives.Identify(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("identify archive %s: %w", path, err)
	}
	ex, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("archive %s: format %T cannot be extracted", path, format)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	var msgs []types.Message
	err = ex.Extract(ctx, f, func(ctx context.Context, fi archives.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fi.IsDir() || !IsMessage(fi.NameInArchive) {
			return nil
		}
		rc, err := fi.Open()
		if err != nil {
			l.log.Warn("archive entry unreadable", zap.String("entry", fi.NameInArchive), zap.Error(err))
			return nil
		}
		defer rc.Close()

		msg, err := l.parser.Parse(rc, fi.NameInArchive, len(msgs))
		if err != nil {
			l.log.Warn("message skipped", zap.String("entry", fi.NameInArchive), zap.Error(err))
			return nil
		}
		msgs = append(msgs, *msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	l.log.Debug("archive loaded", zap.String("path", path), zap.Int("messages", len(msgs)))
	return msgs, nil
}

func (l *Loader) loadDir(ctx context.Context, dir string) ([]types.Message, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsMessage(d.Name()) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	var msgs []types.Message
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(dir, p)
		f, err := os.Open(p)
		if err != nil {
			l.log.Warn("message unreadable", zap.String("path", p), zap.Error(err))
			continue
		}
		msg, err := l.parser.Parse(f, filepath.ToSlash(rel), len(msgs))
		f.Close()
		if err != nil {
			l.log.Warn("message skipped", zap.String("path", p), zap.Error(err))
			continue
		}
		msgs = append(msgs, *msg)
	}
	return msgs, nil
}
