// Package excel imports concepts onto a learner's review queue from
// spreadsheet or CSV files.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studyplan/pkg/models"
)

// ConceptAdder queues a concept for a learner. created is false when the
// learner already tracks it.
type ConceptAdder interface {
	AddConcept(ctx context.Context, userID, conceptID, title string) (state *models.MemoryState, created bool, err error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	UserID        string // Learner the concepts are queued for
	ConceptColumn string // Column with the concept ID
	TitleColumn   string // Column with the display title, may be empty
	SheetName     string // Name of the sheet to import, xlsx only
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		ConceptColumn: "A",
		TitleColumn:   "B",
		SheetName:     "Sheet1",
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int // already on the queue
	Errors         []string
}

// ImportConcepts reads cfg.FilePath and queues every row through adder.
// Rows that fail are reported in the result and do not stop the import.
func ImportConcepts(ctx context.Context, adder ConceptAdder, cfg ImportConfig) (*ImportResult, error) {
	if cfg.UserID == "" {
		return nil, errors.New("user id is required")
	}

	conceptIdx, err := columnIndex(cfg.ConceptColumn)
	if err != nil {
		return nil, fmt.Errorf("concept column: %w", err)
	}
	titleIdx := -1
	if cfg.TitleColumn != "" {
		if titleIdx, err = columnIndex(cfg.TitleColumn); err != nil {
			return nil, fmt.Errorf("title column: %w", err)
		}
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg.FilePath, cfg.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow || isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalProcessed++

		conceptID := cell(row, conceptIdx)
		if conceptID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: concept id cannot be empty", rowNum))
			continue
		}

		_, created, err := adder.AddConcept(ctx, cfg.UserID, conceptID, cell(row, titleIdx))
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		case created:
			result.Created++
		default:
			result.Skipped++
		}
	}

	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex converts a column letter such as "A" or "AB" to a 0-based index
func columnIndex(column string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(column))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
