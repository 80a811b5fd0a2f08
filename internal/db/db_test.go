package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/permmatch/internal/types"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), Dir, File))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleRun(id, started string) (*types.Run, []types.MatchResult) {
	results := []types.MatchResult{
		{
			Employee:    types.Employee{Name: "张三", ID: "E1", Row: 2, Raw: "张三, E1"},
			Matched:     true,
			MessageRef:  "a.eml",
			MessageDate: time.Date(2024, time.March, 4, 2, 0, 0, 0, time.UTC),
			Scenario:    types.ScenarioAdd,
			Source:      types.SourceSubject,
			Snippet:     "新增张三",
		},
		{Employee: types.Employee{Name: "李四", ID: "E2", Row: 3}},
	}
	run := &types.Run{
		ID: id, StartedAt: started, Roster: "roster.xlsx", Source: "mail.zip", Output: "out.xlsx",
		Messages: 5, Employees: 2, Matched: 1, Unresolved: 1,
	}
	return run, results
}

func TestRecordAndReadRun(t *testing.T) {
	d := openTemp(t)
	run, results := sampleRun(NewRunID(), "2024-03-05T10:00:00Z")
	require.NoError(t, d.RecordRun(run, results))

	got, err := d.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	stored, err := d.RunResults(run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "张三", stored[0].Employee.Name)
	assert.True(t, stored[0].Matched)
	assert.Equal(t, types.ScenarioAdd, stored[0].Scenario)
	assert.Equal(t, types.SourceSubject, stored[0].Source)
	assert.True(t, stored[0].MessageDate.Equal(results[0].MessageDate))
	assert.False(t, stored[1].Matched)
	assert.True(t, stored[1].MessageDate.IsZero())

	unresolved, err := d.Unresolved(run.ID)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, 3, unresolved[0].Employee.Row)
}

func TestGetRun_Prefix(t *testing.T) {
	d := openTemp(t)
	for _, id := range []string{"abc-1", "abd-2"} {
		run, results := sampleRun(id, "2024-03-05T10:00:00Z")
		require.NoError(t, d.RecordRun(run, results))
	}

	got, err := d.GetRun("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc-1", got.ID)

	_, err = d.GetRun("ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = d.GetRun("zzz")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns(t *testing.T) {
	d := openTemp(t)
	for _, r := range []struct{ id, at string }{
		{"old", "2024-03-01T10:00:00Z"},
		{"new", "2024-03-09T10:00:00Z"},
		{"mid", "2024-03-05T10:00:00Z"},
	} {
		run, results := sampleRun(r.id, r.at)
		require.NoError(t, d.RecordRun(run, results))
	}

	runs, err := d.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[2].ID)

	runs, err = d.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRun_DuplicateRolledBack(t *testing.T) {
	d := openTemp(t)
	run, results := sampleRun("dup", "2024-03-05T10:00:00Z")
	require.NoError(t, d.RecordRun(run, results))
	assert.Error(t, d.RecordRun(run, results))

	stored, err := d.RunResults("dup")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestEscalations(t *testing.T) {
	d := openTemp(t)
	run, results := sampleRun("r1", "2024-03-05T10:00:00Z")
	require.NoError(t, d.RecordRun(run, results))

	require.NoError(t, d.InsertEscalation(&types.Escalation{RunID: "r1", Row: 3, BeadID: "bd-9"}))
	assert.Error(t, d.InsertEscalation(&types.Escalation{RunID: "r1", Row: 3, BeadID: "bd-10"}))
	assert.Error(t, d.InsertEscalation(&types.Escalation{RunID: "r1", Row: 99, BeadID: "bd-11"}), "row must exist")

	esc, err := d.Escalations("r1")
	require.NoError(t, err)
	require.Len(t, esc, 1)
	assert.Equal(t, "bd-9", esc[3].BeadID)
	assert.NotEmpty(t, esc[3].CreatedAt)
}
