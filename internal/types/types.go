// Package types defines core data structures for permmatch.
package types

import (
	"strings"
	"time"
)

// Employee is one roster entry to resolve.
type Employee struct {
	Name    string   `json:"name"`
	ID      string   `json:"id"`
	Row     int      `json:"row"`
	Raw     string   `json:"raw,omitempty"`
	Columns []string `json:"-"`
}

// Label renders the employee the way the roster writes it.
func (e Employee) Label() string {
	switch {
	case e.Name != "" && e.ID != "":
		return e.Name + ", " + e.ID
	case e.Name != "":
		return e.Name
	default:
		return e.ID
	}
}

// Attachment is a file attached to a message. Text is only populated when the
// attachment passed the extension and size gate and extraction succeeded.
type Attachment struct {
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
	Text      string `json:"-"`
	Extracted bool   `json:"extracted"`
	Err       string `json:"error,omitempty"`
}

// Message is a parsed e-mail from the corpus.
type Message struct {
	ID          string       `json:"id"`
	File        string       `json:"file"`
	Index       int          `json:"index"`
	Date        time.Time    `json:"date"`
	Subject     string       `json:"subject"`
	Body        string       `json:"-"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Ref returns the identifier reported for a message.
func (m *Message) Ref() string {
	if m.File != "" {
		return m.File
	}
	return m.ID
}

// CombinedText joins subject, body and attachment text with newlines.
func (m *Message) CombinedText() string {
	parts := []string{m.Subject, m.Body}
	for _, a := range m.Attachments {
		parts = append(parts, a.Text)
	}
	return strings.Join(parts, "\n")
}

// Scenario is the classified permission action.
type Scenario string

// Scenario constants.
const (
	ScenarioAdd    Scenario = "ADD"
	ScenarioRemove Scenario = "REMOVE"
	ScenarioModify Scenario = "MODIFY"
)

// Scenarios lists every scenario in tie-break order.
var Scenarios = []Scenario{ScenarioAdd, ScenarioRemove, ScenarioModify}

// IsValid reports whether s is one of the three scenarios.
func (s Scenario) IsValid() bool {
	for _, v := range Scenarios {
		if v == s {
			return true
		}
	}
	return false
}

// Label returns the label written into reports.
func (s Scenario) Label() string {
	switch s {
	case ScenarioAdd:
		return "新增"
	case ScenarioRemove:
		return "删除"
	case ScenarioModify:
		return "修改"
	default:
		return ""
	}
}

// SourceKind tells which part of a message produced a match.
type SourceKind string

// Source kinds, in scan order.
const (
	SourceSubject    SourceKind = "SUBJECT"
	SourceBody       SourceKind = "BODY"
	SourceAttachment SourceKind = "ATTACHMENT"
)

// Label returns the label written into reports.
func (k SourceKind) Label() string {
	switch k {
	case SourceSubject:
		return "主题"
	case SourceBody:
		return "正文"
	case SourceAttachment:
		return "附件"
	default:
		return ""
	}
}

// Occurrence is a valid match of an employee name or ID inside one source.
type Occurrence struct {
	Source     SourceKind `json:"source"`
	Attachment int        `json:"attachment"` // index into Message.Attachments, -1 otherwise
	Position   int        `json:"position"`   // byte offset within the source text
	Needle     string     `json:"needle"`
	Snippet    string     `json:"snippet"`
}

// MatchResult is the outcome for one employee.
type MatchResult struct {
	Employee    Employee   `json:"employee"`
	Matched     bool       `json:"matched"`
	MessageRef  string     `json:"message_ref,omitempty"`
	MessageDate time.Time  `json:"message_date,omitzero"`
	Scenario    Scenario   `json:"scenario,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
	Source      SourceKind `json:"source,omitempty"`
}

// Run summarizes one pipeline run.
type Run struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	Roster     string `json:"roster"`
	Source     string `json:"source"`
	Output     string `json:"output"`
	Messages   int    `json:"messages"`
	Employees  int    `json:"employees"`
	Matched    int    `json:"matched"`
	Unresolved int    `json:"unresolved"`
}

// Escalation links a needs-decision employee of a run to a beads issue.
type Escalation struct {
	RunID     string `json:"run_id"`
	Row       int    `json:"row"`
	BeadID    string `json:"bead_id"`
	CreatedAt string `json:"created_at"`
}
