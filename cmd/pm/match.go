package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daviddao/permmatch/internal/archive"
	"github.com/daviddao/permmatch/internal/db"
	"github.com/daviddao/permmatch/internal/display"
	"github.com/daviddao/permmatch/internal/eml"
	"github.com/daviddao/permmatch/internal/extract"
	"github.com/daviddao/permmatch/internal/gmail"
	"github.com/daviddao/permmatch/internal/match"
	"github.com/daviddao/permmatch/internal/report"
	"github.com/daviddao/permmatch/internal/roster"
	"github.com/daviddao/permmatch/internal/types"
)

var (
	matchExcel       string
	matchZip         string
	matchOutput      string
	matchColumn      string
	matchSheet       string
	matchGmail       string
	matchAccount     string
	matchCredentials string
	matchMaxResults  int64
	matchHistory     string
	matchNoHistory   bool
)

type matchOutputJSON struct {
	RunID         string              `json:"run_id,omitempty"`
	Output        string              `json:"output"`
	Messages      int                 `json:"messages"`
	Summary       report.Summary      `json:"summary"`
	Resolved      []types.MatchResult `json:"resolved"`
	NeedsDecision []types.MatchResult `json:"needs_decision"`
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a roster against an e-mail corpus and write the result workbook",
	Long: `Match every roster entry to the most recent e-mail that names it and
classify the request as ADD, REMOVE or MODIFY.

Messages come from a zip (or tar, 7z, rar) archive of .eml files, a directory of
.eml files, a single .eml file, or a Gmail search. Entries without a valid match
land on the needs-decision sheet.`,
	Example: `  pm match --excel roster.xlsx --zip mails.zip --output result.xlsx
  pm match --excel roster.xlsx --zip ./mails/ --column 员工 --sheet Sheet2
  pm match --excel roster.xlsx --gmail "subject:权限 newer_than:30d" --output result.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if matchExcel == "" {
			return fmt.Errorf("--excel is required")
		}
		if (matchZip == "") == (matchGmail == "") {
			return fmt.Errorf("exactly one of --zip or --gmail is required")
		}
		if matchOutput == "" {
			matchOutput = defaultOutput(matchExcel)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startedAt := db.Now()
		ros, err := roster.Load(matchExcel, roster.Options{Sheet: matchSheet, Column: matchColumn})
		if err != nil {
			return err
		}
		logger.Info("roster loaded",
			zap.String("path", matchExcel),
			zap.String("sheet", ros.Sheet),
			zap.Int("employees", len(ros.Employees)))

		parser := eml.NewParser(extract.New(settings.Extract), logger)
		msgs, source, err := loadMessages(ctx, parser)
		if err != nil {
			return err
		}
		if !quietFlag && !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Parsed %d messages from %s\n", len(msgs), source)
		}

		resolver := match.NewResolver(settings.Match, logger)
		results := resolver.ResolveAll(ros.Employees, msgs)
		rep := report.Build(ros.Headers, results)

		if err := report.WriteWorkbook(matchOutput, rep, settings.Report); err != nil {
			return err
		}

		sum := rep.Summary()
		run := &types.Run{
			ID:         db.NewRunID(),
			StartedAt:  startedAt,
			Roster:     matchExcel,
			Source:     source,
			Output:     matchOutput,
			Messages:   len(msgs),
			Employees:  sum.Total,
			Matched:    sum.Resolved,
			Unresolved: sum.NeedsDecision,
		}
		recorded := recordRun(run, results)

		if jsonOutput {
			out := matchOutputJSON{
				Output:        matchOutput,
				Messages:      len(msgs),
				Summary:       sum,
				Resolved:      nonNilResults(rep.Resolved),
				NeedsDecision: nonNilResults(rep.NeedsDecision),
			}
			if recorded {
				out.RunID = run.ID
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}

		if !quietFlag {
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), display.ResultLine(r))
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d of %d employees, %d need a decision\n",
			sum.Resolved, sum.Total, sum.NeedsDecision)
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", matchOutput)
		if recorded && !quietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", display.Dim.Render("Run "+run.ID))
		}
		return nil
	},
}

// loadMessages reads the corpus from the archive path or the Gmail query and
// returns the messages plus a description of where they came from.
func loadMessages(ctx context.Context, parser *eml.Parser) ([]types.Message, string, error) {
	if matchZip != "" {
		msgs, err := archive.NewLoader(parser, logger).Load(ctx, matchZip)
		if err != nil {
			return nil, "", err
		}
		return msgs, matchZip, nil
	}

	root := db.FindProjectRoot()
	if root == "" {
		root = "."
	}
	credPath, err := gmail.ResolveCredentials(root, matchAccount, matchCredentials)
	if err != nil {
		return nil, "", err
	}
	src, err := gmail.Open(ctx, credPath, parser, logger)
	if err != nil {
		return nil, "", fmt.Errorf("open gmail: %w", err)
	}
	msgs, err := src.Fetch(ctx, matchGmail, matchMaxResults)
	if err != nil {
		return nil, "", fmt.Errorf("fetch gmail: %w", err)
	}
	return msgs, "gmail:" + matchGmail, nil
}

// recordRun stores the run in the history database when one is configured.
// Failures are logged; the workbook is already written at this point.
func recordRun(run *types.Run, results []types.MatchResult) bool {
	if matchNoHistory {
		return false
	}
	path := matchHistory
	if path == "" {
		path = dbPath
	}
	if path == "" {
		path = db.DiscoverDB()
	}
	if path == "" {
		return false
	}

	d, err := db.Open(path)
	if err != nil {
		logger.Warn("history not recorded", zap.String("db", path), zap.Error(err))
		return false
	}
	defer d.Close()
	if err := d.RecordRun(run, results); err != nil {
		logger.Warn("history not recorded", zap.String("db", path), zap.Error(err))
		return false
	}
	logger.Debug("run recorded", zap.String("run", run.ID), zap.String("db", path))
	return true
}

func nonNilResults(in []types.MatchResult) []types.MatchResult {
	if in == nil {
		return []types.MatchResult{}
	}
	return in
}

func defaultOutput(excel string) string {
	base := strings.TrimSuffix(filepath.Base(excel), filepath.Ext(excel))
	return filepath.Join(filepath.Dir(excel), base+"_result.xlsx")
}

func init() {
	matchCmd.Flags().StringVar(&matchExcel, "excel", "", "Roster workbook (.xlsx)")
	matchCmd.Flags().StringVar(&matchZip, "zip", "", "Archive, directory or .eml file with the messages")
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", "", "Result workbook (default: <roster>_result.xlsx)")
	matchCmd.Flags().StringVar(&matchColumn, "column", roster.DefaultColumn, "Roster column holding name and ID")
	matchCmd.Flags().StringVar(&matchSheet, "sheet", "", "Roster sheet (default: first sheet)")
	matchCmd.Flags().StringVar(&matchGmail, "gmail", "", "Read messages from Gmail matching this query instead of --zip")
	matchCmd.Flags().StringVar(&matchAccount, "account", "", "Gmail account directory under the project root")
	matchCmd.Flags().StringVar(&matchCredentials, "credentials", "", "Path to OAuth credentials.json")
	matchCmd.Flags().Int64VarP(&matchMaxResults, "max-results", "n", 500, "Maximum Gmail messages to fetch (0 for all)")
	matchCmd.Flags().StringVar(&matchHistory, "history", "", "Record the run in this database (default: --db or auto-discover)")
	matchCmd.Flags().BoolVar(&matchNoHistory, "no-history", false, "Do not record the run")
	rootCmd.AddCommand(matchCmd)
}
