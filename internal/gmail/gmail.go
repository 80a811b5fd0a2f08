// Package gmail fetches the message corpus from a Gmail mailbox.
//
// Messages are downloaded in raw RFC 5322 form and run through the same
// parser as archived .eml files, so both sources yield identical messages.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gm "google.golang.org/api/gmail/v1"
)

// pageSize is the largest page the Gmail list endpoint serves.
const pageSize = 500

// ListIDs returns the IDs of messages matching query, newest first as Gmail
// orders them, up to maxResults (0 means no limit).
func ListIDs(ctx context.Context, svc *gm.Service, query string, maxResults int64) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := svc.Users.Messages.List("me").Q(query).Context(ctx)
		size := int64(pageSize)
		if maxResults > 0 && maxResults-int64(len(ids)) < size {
			size = maxResults - int64(len(ids))
		}
		call = call.MaxResults(size)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" || (maxResults > 0 && int64(len(ids)) >= maxResults) {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ReadRaw fetches one message in raw RFC 5322 form.
func ReadRaw(ctx context.Context, svc *gm.Service, messageID string) ([]byte, error) {
	msg, err := svc.Users.Messages.Get("me", messageID).
		Format("raw").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	raw, err := decodeBase64URL(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("decode message %s: %w", messageID, err)
	}
	return raw, nil
}

// decodeBase64URL decodes Gmail's base64url content, padded or not.
func decodeBase64URL(data string) ([]byte, error) {
	data = strings.TrimRight(data, "=")
	return base64.RawURLEncoding.DecodeString(data)
}
