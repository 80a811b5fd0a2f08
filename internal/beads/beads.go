// Package beads provides a shell-out wrapper for the bd (beads) CLI.
//
// Roster rows that no message could resolve are handed to beads as issues so
// a reviewer can track the manual decision. This package shells out to the bd
// binary and parses its JSON output.
package beads

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/daviddao/permmatch/internal/types"
)

// Binary is the beads executable looked up on PATH.
var Binary = "bd"

// Labels attached to every escalation issue.
var Labels = []string{"permmatch", "needs-decision"}

// Issue is the subset of beads issue fields the escalation flow reads.
type Issue struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	IssueType   string `json:"issue_type"`
	ExternalRef string `json:"external_ref,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	CloseReason string `json:"close_reason,omitempty"`
}

// Available checks if the bd binary is on PATH.
func Available() bool {
	_, err := exec.LookPath(Binary)
	return err == nil
}

// ExternalRef builds the external_ref for a roster row of a run.
func ExternalRef(runID string, row int) string {
	return fmt.Sprintf("pm:%s:%d", runID, row)
}

// Title returns the issue title for an unresolved employee.
func Title(emp types.Employee) string {
	return "权限核对: " + emp.Label()
}

// Description returns the issue body for an unresolved employee.
func Description(runID, roster string, emp types.Employee) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No approval e-mail matched roster row %d.\n\n", emp.Row)
	fmt.Fprintf(&b, "Employee: %s\n", emp.Label())
	if roster != "" {
		fmt.Fprintf(&b, "Roster: %s\n", roster)
	}
	fmt.Fprintf(&b, "Run: %s\n", runID)
	return b.String()
}

// Escalate files an issue for an unresolved employee of a run.
func Escalate(runID, roster string, emp types.Employee) (*Issue, error) {
	return Create(Title(emp), Description(runID, roster, emp), "2", ExternalRef(runID, emp.Row))
}

// Create creates a new beads task and returns the created issue.
func Create(title, description, priority, externalRef string) (*Issue, error) {
	args := []string{"create", title,
		"-p", priority,
		"-t", "task",
		"-l", strings.Join(Labels, ","),
		"--json", "--silent",
	}
	if externalRef != "" {
		args = append(args, "--external-ref", externalRef)
	}
	if description != "" {
		args = append(args, "-d", description)
	}

	out, err := run(args...)
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal(out, &issue); err != nil {
		return nil, fmt.Errorf("parse bd create output: %w", err)
	}
	if issue.ID == "" {
		return nil, errors.New("bd create returned no issue id")
	}
	return &issue, nil
}

// Show returns a beads issue by ID.
func Show(beadID string) (*Issue, error) {
	out, err := run("show", beadID, "--json")
	if err != nil {
		return nil, err
	}

	// bd show returns an array of issues.
	var issues []Issue
	if err := json.Unmarshal(out, &issues); err != nil {
		var issue Issue
		if err2 := json.Unmarshal(out, &issue); err2 != nil {
			return nil, fmt.Errorf("parse bd show output: %w", err)
		}
		return &issue, nil
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("bead %q not found", beadID)
	}
	return &issues[0], nil
}

// discoverBeadsDB walks up from cwd looking for a .beads/ directory
// and returns the path to .beads/beads.db, or empty string if not found.
func discoverBeadsDB() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".beads", "beads.db")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// run executes the bd CLI and returns stdout.
func run(args ...string) ([]byte, error) {
	sub := args[0]
	if dbPath := discoverBeadsDB(); dbPath != "" {
		args = append([]string{"--db", dbPath}, args...)
	}

	cmd := exec.Command(Binary, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("bd %s: %s", sub, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("bd %s: %w", sub, err)
	}
	return out, nil
}
