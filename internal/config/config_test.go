package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default().Match, cfg.Match)
	assert.Equal(t, 200, cfg.Match.ManagerWindowBefore)
	assert.Equal(t, []string{"修改密码"}, cfg.Match.Exclusions)
	assert.Equal(t, int64(5<<20), cfg.Extract.MaxSize)
	assert.Equal(t, "结果", cfg.Report.ResultsSheet)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
match:
  manager_keywords: [manager, 经理]
  snippet_radius: 20
  keywords:
    remove: [删除, 注销]
report:
  decision_sheet: review
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"manager", "经理"}, cfg.Match.ManagerKeywords)
	assert.Equal(t, 20, cfg.Match.SnippetRadius)
	assert.Equal(t, []string{"删除", "注销"}, cfg.Match.Keywords.Remove)
	assert.Equal(t, []string{"新增"}, cfg.Match.Keywords.Add, "untouched keys keep defaults")
	assert.Equal(t, "review", cfg.Report.DecisionSheet)
	assert.Equal(t, 200, cfg.Match.ManagerWindowBefore)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PM_MATCH_SNIPPET_RADIUS", "12")
	t.Setenv("PM_MATCH_KEYWORDS_MODIFY", "修改,变更")
	t.Setenv("PM_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Match.SnippetRadius)
	assert.Equal(t, []string{"修改", "变更"}, cfg.Match.Keywords.Modify)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  decision_sheet: 结果\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "must differ")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PM_MATCH_SNIPPET_RADIUS": "match.snippet_radius",
		"PM_MATCH_KEYWORDS_ADD":   "match.keywords.add",
		"PM_EXTRACT_MAX_SIZE":     "extract.max_size",
		"PM_REPORT_RESULTS_SHEET": "report.results_sheet",
		"PM_LOG_FORMAT":           "log.format",
		"PM_NOSECTION":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".permmatch", FileName)
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
