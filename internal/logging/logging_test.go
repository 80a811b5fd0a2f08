package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "json debug", cfg: Config{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: Config{Level: "loud", Format: "console"}, wantErr: true},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("parsed messages")
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "parsed messages", entry["msg"])
	assert.Contains(t, entry, "ts")
}

func TestWithVerbosity(t *testing.T) {
	base := DefaultConfig()
	assert.Equal(t, "debug", WithVerbosity(base, true, false).Level)
	assert.Equal(t, "warn", WithVerbosity(base, false, true).Level)
	assert.Equal(t, "debug", WithVerbosity(base, true, true).Level)
	assert.Equal(t, "info", WithVerbosity(base, false, false).Level)
}
