package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes the results and needs-decision sheets to path. Both
// sheets are written even when empty.
func WriteWorkbook(path string, r *Report, cfg Config) error {
	if cfg.ResultsSheet == "" || cfg.DecisionSheet == "" {
		return errors.New("report sheet names must not be empty")
	}
	if cfg.ResultsSheet == cfg.DecisionSheet {
		return fmt.Errorf("report sheets share the name %q", cfg.ResultsSheet)
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = DefaultConfig().DateLayout
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, cfg.ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(cfg.DecisionSheet); err != nil {
		return fmt.Errorf("create sheet %q: %w", cfg.DecisionSheet, err)
	}

	if err := writeTable(f, cfg.ResultsSheet, r.resultsTable(cfg), bold); err != nil {
		return err
	}
	if err := writeTable(f, cfg.DecisionSheet, r.decisionTable(), bold); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t table, headerStyle int) error {
	if err := writeRow(f, sheet, 1, t.header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range t.rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, n int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
	return nil
}
