package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestParseToken(t *testing.T) {
	tok, err := parseToken([]byte(`{"token":"abc","refresh_token":"r","expiry":"2024-03-04T10:00:00.123456Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, 2024, tok.Expiry.Year())
	assert.Equal(t, 123456000, tok.Expiry.Nanosecond())

	_, err = parseToken([]byte("{"))
	assert.Error(t, err)
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	expiry := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	cfg := &oauth2.Config{ClientID: "id", Endpoint: oauth2.Endpoint{TokenURL: "https://oauth2.example.com/token"}}

	require.NoError(t, saveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "b", Expiry: expiry}, cfg))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.True(t, tok.Expiry.Equal(expiry))
}

func TestTokenPath(t *testing.T) {
	assert.Equal(t, filepath.Join("me@example.com", "token.json"), TokenPath(filepath.Join("me@example.com", "credentials.json")))
}
