package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/daviddao/permmatch/internal/types"
)

var headers = []string{"序号", "员工名字工号", ColScenarioFill, ColCorrect, ColMailReceived}

func sampleResults() []types.MatchResult {
	return []types.MatchResult{
		{
			Employee:    types.Employee{Name: "张三", ID: "E1", Row: 2, Columns: []string{"1", "张三, E1"}},
			Matched:     true,
			MessageRef:  "a.eml",
			MessageDate: time.Date(2024, time.March, 4, 2, 0, 0, 0, time.UTC),
			Scenario:    types.ScenarioRemove,
			Snippet:     "请删除张三",
			Source:      types.SourceBody,
		},
		{
			Employee: types.Employee{Name: "李四", ID: "E2", Row: 3, Columns: []string{"2", "李四, E2"}},
		},
		{
			Employee:   types.Employee{Name: "王五", ID: "E3", Row: 4, Columns: []string{"3", "王五, E3", "新增", "否"}},
			Matched:    true,
			MessageRef: "b.eml",
			Scenario:   types.ScenarioModify,
			Snippet:    "修改王五",
			Source:     types.SourceAttachment,
		},
	}
}

func TestBuild_Partitions(t *testing.T) {
	r := Build(headers, sampleResults())

	require.Len(t, r.Resolved, 2)
	require.Len(t, r.NeedsDecision, 1)
	assert.Equal(t, 3, r.Total())
	assert.Equal(t, "张三", r.Resolved[0].Employee.Name)
	assert.Equal(t, "王五", r.Resolved[1].Employee.Name)
	assert.Equal(t, "李四", r.NeedsDecision[0].Employee.Name)
}

func TestResultsTable(t *testing.T) {
	r := Build(headers, sampleResults())
	tab := r.resultsTable(DefaultConfig())

	assert.Equal(t, append(append([]string{}, headers...), ColName, ColID, ColScenario, ColSource, ColNote, ColMessage, ColDate), tab.header)
	require.Len(t, tab.rows, 2)

	zhang := tab.rows[0]
	assert.Equal(t, "删除", zhang[2], "blank scenario cell is filled")
	assert.Equal(t, Yes, zhang[3])
	assert.Equal(t, Yes, zhang[4], "removal marks the mail as received")
	assert.Equal(t, "张三", zhang[5])
	assert.Equal(t, "E1", zhang[6])
	assert.Equal(t, "删除", zhang[7])
	assert.Equal(t, "正文", zhang[8])
	assert.Equal(t, "请删除张三", zhang[9])
	assert.Equal(t, "a.eml", zhang[10])
	assert.Equal(t, "2024-03-04 02:00:00", zhang[11])

	wang := tab.rows[1]
	assert.Equal(t, "新增", wang[2], "pre-filled scenario is kept")
	assert.Equal(t, "否", wang[3])
	assert.Equal(t, "", wang[4], "modification does not mark receipt")
	assert.Equal(t, "王五", wang[5])
	assert.Equal(t, "E3", wang[6])
	assert.Equal(t, "修改", wang[7])
	assert.Equal(t, "附件", wang[8])
	assert.Equal(t, "", wang[11])
}

func TestResultsTable_ExistingColumnsReused(t *testing.T) {
	r := Build([]string{"员工名字工号", ColNote, ColID}, []types.MatchResult{{
		Employee: types.Employee{Name: "a", ID: "E9", Columns: []string{"a", "old", "EMP-9"}},
		Matched:  true,
		Scenario: types.ScenarioAdd,
		Snippet:  "new",
		Source:   types.SourceSubject,
	}})

	tab := r.resultsTable(DefaultConfig())
	assert.Equal(t, []string{"员工名字工号", ColNote, ColID, ColName, ColScenario, ColSource, ColMessage, ColDate}, tab.header)
	assert.Equal(t, "new", tab.rows[0][1])
	assert.Equal(t, "EMP-9", tab.rows[0][2], "roster value in the ID column is kept")
	assert.Equal(t, "a", tab.rows[0][3])
}

func TestDecisionTable(t *testing.T) {
	r := Build(headers, sampleResults())
	tab := r.decisionTable()

	require.Len(t, tab.rows, 1)
	row := tab.rows[0]
	assert.Equal(t, append(append([]string{}, headers...), ColName, ColID, ColSource, ColNote), tab.header)
	assert.Equal(t, "李四, E2", row[1])
	assert.Equal(t, "李四", row[len(headers)])
	assert.Equal(t, "E2", row[len(headers)+1])
	assert.Equal(t, "", row[len(headers)+2])
	assert.Equal(t, NoMatchNote, row[len(headers)+3])
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.xlsx")
	r := Build(headers, sampleResults())
	require.NoError(t, WriteWorkbook(path, r, DefaultConfig()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"结果", "需你决策"}, f.GetSheetList())

	rows, err := f.GetRows("结果")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ColName, rows[0][5])
	assert.Equal(t, ColScenario, rows[0][7])
	assert.Equal(t, "张三, E1", rows[1][1])
	assert.Equal(t, "张三", rows[1][5])
	assert.Equal(t, "E1", rows[1][6])
	assert.Equal(t, "删除", rows[1][7])

	rows, err = f.GetRows("需你决策")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, NoMatchNote, rows[1][len(rows[1])-1])
}

func TestWriteWorkbook_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteWorkbook(path, Build(headers, nil), DefaultConfig()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("需你决策")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteWorkbook_BadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecisionSheet = cfg.ResultsSheet
	assert.Error(t, WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), Build(headers, nil), cfg))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Build(headers, sampleResults())))

	var out struct {
		Summary       Summary           `json:"summary"`
		Resolved      []json.RawMessage `json:"resolved"`
		NeedsDecision []json.RawMessage `json:"needs_decision"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, Summary{Total: 3, Resolved: 2, NeedsDecision: 1}, out.Summary)
	assert.Len(t, out.Resolved, 2)
	assert.Contains(t, buf.String(), `"scenario": "REMOVE"`)
}
