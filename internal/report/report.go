// Package report builds the two-sheet result workbook and its JSON twin.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/daviddao/permmatch/internal/types"
)

// Column headers written or filled by the report.
const (
	ColName     = "姓名"
	ColID       = "工号"
	ColScenario = "场景"
	ColSource   = "最终判定来源"
	ColNote     = "匹配说明"
	ColMessage  = "邮件"
	ColDate     = "邮件时间"

	ColScenarioFill = "权限变更场景 (新增，删除，修改)"
	ColCorrect      = "操作是否正确"
	ColMailReceived = "新增/删除场景，是否收到申请邮件"

	NoMatchNote = "未匹配到邮件"
	Yes         = "是"
)

// Config names the sheets and formats dates.
type Config struct {
	ResultsSheet  string `koanf:"results_sheet" yaml:"results_sheet"`
	DecisionSheet string `koanf:"decision_sheet" yaml:"decision_sheet"`
	DateLayout    string `koanf:"date_layout" yaml:"date_layout"`
}

// DefaultConfig returns the stock sheet names.
func DefaultConfig() Config {
	return Config{
		ResultsSheet:  "结果",
		DecisionSheet: "需你决策",
		DateLayout:    "2006-01-02 15:04:05",
	}
}

// Report partitions results into resolved and needs-decision rows.
type Report struct {
	Headers       []string            `json:"-"`
	Resolved      []types.MatchResult `json:"resolved"`
	NeedsDecision []types.MatchResult `json:"needs_decision"`
}

// Build splits results. Every result lands in exactly one partition and roster
// order is kept within each.
func Build(headers []string, results []types.MatchResult) *Report {
	r := &Report{Headers: headers}
	for _, res := range results {
		if res.Matched {
			r.Resolved = append(r.Resolved, res)
		} else {
			r.NeedsDecision = append(r.NeedsDecision, res)
		}
	}
	return r
}

// Total returns the number of employees in the report.
func (r *Report) Total() int {
	return len(r.Resolved) + len(r.NeedsDecision)
}

// table is a header row plus data rows, all as strings.
type table struct {
	header []string
	rows   [][]string
}

// withColumns returns headers extended by the extra columns it lacks, and the
// index of each extra column.
func withColumns(headers []string, extra ...string) ([]string, map[string]int) {
	out := append([]string(nil), headers...)
	idx := make(map[string]int, len(extra))
	for i, h := range out {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	for _, h := range extra {
		if _, ok := idx[h]; !ok {
			idx[h] = len(out)
			out = append(out, h)
		}
	}
	return out, idx
}

func baseRow(emp types.Employee, width int) []string {
	row := make([]string, width)
	copy(row, emp.Columns)
	return row
}

// fillIdentity writes the parsed name and ID, keeping values the roster
// already holds in columns of the same name.
func fillIdentity(row []string, idx map[string]int, emp types.Employee) {
	if i := idx[ColName]; isBlank(row[i]) {
		row[i] = emp.Name
	}
	if i := idx[ColID]; isBlank(row[i]) {
		row[i] = emp.ID
	}
}

// resultsTable renders the resolved rows.
func (r *Report) resultsTable(cfg Config) table {
	header, idx := withColumns(r.Headers, ColName, ColID, ColScenario, ColSource, ColNote, ColMessage, ColDate)
	t := table{header: header}
	for _, res := range r.Resolved {
		row := baseRow(res.Employee, len(header))
		fillIdentity(row, idx, res.Employee)
		label := res.Scenario.Label()

		if i, ok := idx[ColScenarioFill]; ok && isBlank(row[i]) {
			row[i] = label
			if j, ok := idx[ColCorrect]; ok {
				row[j] = Yes
			}
		}
		if j, ok := idx[ColMailReceived]; ok && (res.Scenario == types.ScenarioAdd || res.Scenario == types.ScenarioRemove) {
			row[j] = Yes
		}

		row[idx[ColScenario]] = label
		row[idx[ColSource]] = res.Source.Label()
		row[idx[ColNote]] = res.Snippet
		row[idx[ColMessage]] = res.MessageRef
		if !res.MessageDate.IsZero() {
			row[idx[ColDate]] = res.MessageDate.Format(cfg.DateLayout)
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// decisionTable renders the needs-decision rows.
func (r *Report) decisionTable() table {
	header, idx := withColumns(r.Headers, ColName, ColID, ColSource, ColNote)
	t := table{header: header}
	for _, res := range r.NeedsDecision {
		row := baseRow(res.Employee, len(header))
		fillIdentity(row, idx, res.Employee)
		row[idx[ColSource]] = ""
		row[idx[ColNote]] = NoMatchNote
		t.rows = append(t.rows, row)
	}
	return t
}

// isBlank treats spreadsheet placeholders for missing values as empty.
func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}

// Summary counts the report partitions.
type Summary struct {
	Total         int `json:"total"`
	Resolved      int `json:"resolved"`
	NeedsDecision int `json:"needs_decision"`
}

// Summary returns the partition counts.
func (r *Report) Summary() Summary {
	return Summary{Total: r.Total(), Resolved: len(r.Resolved), NeedsDecision: len(r.NeedsDecision)}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	out := struct {
		Summary       Summary             `json:"summary"`
		Resolved      []types.MatchResult `json:"resolved"`
		NeedsDecision []types.MatchResult `json:"needs_decision"`
	}{
		Summary:       r.Summary(),
		Resolved:      nonNil(r.Resolved),
		NeedsDecision: nonNil(r.NeedsDecision),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func nonNil(in []types.MatchResult) []types.MatchResult {
	if in == nil {
		return []types.MatchResult{}
	}
	return in
}
