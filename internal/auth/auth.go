// Package auth provides Google OAuth2 authentication for the Gmail source.
//
// It reads the credentials.json and token.json pair written by Google's
// Python client library, so an existing token works without a new consent.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested for the matcher. The mailbox is only read.
var Scopes = []string{gmail.GmailReadonlyScope}

// tokenFile is the token.json format written by Python's google-auth library.
type tokenFile struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

const expiryLayout = "2006-01-02T15:04:05.999999Z"

// TokenPath returns the token.json that sits next to credentialsPath.
func TokenPath(credentialsPath string) string {
	return filepath.Join(filepath.Dir(credentialsPath), "token.json")
}

// LoadGmailService returns an authenticated Gmail API service.
func LoadGmailService(ctx context.Context, credentialsPath string, log *zap.Logger) (*gmail.Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := getClient(ctx, credentialsPath, log)
	if err != nil {
		return nil, fmt.Errorf("get oauth client: %w", err)
	}
	return gmail.NewService(ctx, option.WithHTTPClient(client))
}

func getClient(ctx context.Context, credentialsPath string, log *zap.Logger) (*http.Client, error) {
	config, err := loadOAuthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}

	tokenPath := TokenPath(credentialsPath)
	token, err := loadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load token from %s: %w", tokenPath, err)
	}

	ts := config.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := saveToken(tokenPath, fresh, config); err != nil {
			log.Warn("could not save refreshed token", zap.String("path", tokenPath), zap.Error(err))
		}
	}
	return oauth2.NewClient(ctx, ts), nil
}

func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials from %s: %w", credentialsPath, err)
	}
	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

func loadToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	return parseToken(data)
}

func parseToken(data []byte) (*oauth2.Token, error) {
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	// Python writes ISO 8601 with microseconds.
	var expiry time.Time
	if tf.Expiry != "" {
		for _, layout := range []string{expiryLayout, time.RFC3339Nano} {
			if t, err := time.Parse(layout, tf.Expiry); err == nil {
				expiry = t
				break
			}
		}
	}

	return &oauth2.Token{
		AccessToken:  tf.Token,
		RefreshToken: tf.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}, nil
}

func saveToken(tokenPath string, token *oauth2.Token, config *oauth2.Config) error {
	tf := tokenFile{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     config.Endpoint.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       Scopes,
		Expiry:       token.Expiry.UTC().Format(expiryLayout),
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0o600)
}
