package gmail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	gm "google.golang.org/api/gmail/v1"

	"github.com/daviddao/permmatch/internal/auth"
	"github.com/daviddao/permmatch/internal/eml"
	"github.com/daviddao/permmatch/internal/types"
)

// DiscoverAccounts finds accounts by scanning root for <address>/credentials.json
// directories. Returns the directory names, sorted.
func DiscoverAccounts(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var accounts []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(entry.Name(), "@") {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "credentials.json")); err == nil {
			accounts = append(accounts, entry.Name())
		}
	}
	sort.Strings(accounts)
	return accounts
}

// ResolveCredentials picks the credentials file: an explicit path wins, then
// <root>/<account>/credentials.json, then the only discovered account.
func ResolveCredentials(root, account, credentials string) (string, error) {
	if credentials != "" {
		return credentials, nil
	}
	if account != "" {
		return filepath.Join(root, account, "credentials.json"), nil
	}
	accounts := DiscoverAccounts(root)
	switch len(accounts) {
	case 0:
		return "", fmt.Errorf("no Gmail account found under %s (pass --credentials)", root)
	case 1:
		return filepath.Join(root, accounts[0], "credentials.json"), nil
	default:
		return "", fmt.Errorf("several Gmail accounts found (%s), pass --account", strings.Join(accounts, ", "))
	}
}

// Source reads messages from a Gmail mailbox.
type Source struct {
	svc    *gm.Service
	parser *eml.Parser
	log    *zap.Logger
}

// NewSource builds a Source for an authenticated service.
func NewSource(svc *gm.Service, parser *eml.Parser, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{svc: svc, parser: parser, log: log}
}

// Open authenticates with the credentials file and returns a Source.
func Open(ctx context.Context, credentialsPath string, parser *eml.Parser, log *zap.Logger) (*Source, error) {
	svc, err := auth.LoadGmailService(ctx, credentialsPath, log)
	if err != nil {
		return nil, err
	}
	return NewSource(svc, parser, log), nil
}

// Fetch returns the messages matching query. Gmail lists newest first, so
// Index counts down the listing and later container positions stay newer.
// Messages that cannot be read are logged and skipped.
func (s *Source) Fetch(ctx context.Context, query string, maxResults int64) ([]types.Message, error) {
	ids, err := ListIDs(ctx, s.svc, query, maxResults)
	if err != nil {
		return nil, err
	}
	s.log.Info("gmail query", zap.String("query", query), zap.Int("messages", len(ids)))

	msgs := make([]types.Message, 0, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := ReadRaw(ctx, s.svc, id)
		if err != nil {
			s.log.Warn("message skipped", zap.String("id", id), zap.Error(err))
			continue
		}
		msg, err := s.parser.ParseBytes(raw, "gmail:"+id, len(ids)-1-i)
		if err != nil {
			s.log.Warn("message skipped", zap.String("id", id), zap.Error(err))
			continue
		}
		if msg.ID == "" {
			msg.ID = id
		}
		msgs = append(msgs, *msg)
	}
	return msgs, nil
}
