package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readCells parses raw file bytes into rows of cells, dispatching on the file
// extension: delimited text is decoded and sniffed for its separator,
// spreadsheet binaries go through excelize. Returns the raw grid before any
// cleaning.
func readCells(name string, data []byte) ([][]string, []Issue, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".tsv":
		return readDelimited(data)
	case ".xlsx", ".xlsm":
		return readWorkbook(data)
	default:
		return nil, nil, fmt.Errorf("unsupported extension %q", filepath.Ext(name))
	}
}

func readDelimited(data []byte) ([][]string, []Issue, error) {
	decoded, _, err := decodeToUTF8(data)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = sniffDelimiter(decoded)
	// Exports routinely have ragged rows; padding is handled downstream.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	var warnings []Issue
	rowNum := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			warnings = append(warnings, warnIssue(CodeRowSkipped,
				fmt.Sprintf("unparseable line: %v", err), rowNum))
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}
	return rows, warnings, nil
}

// sniffDelimiter picks the separator that splits the first non-empty line into
// the most fields. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	line := firstNonEmptyLine(data)
	best, bestCount := ',', strings.Count(line, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if c := strings.Count(line, string(cand)); c > bestCount {
			best, bestCount = cand, c
		}
	}
	return best
}

func firstNonEmptyLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func readWorkbook(data []byte) ([][]string, []Issue, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	// The first sheet with any content wins; HR tools put cover sheets last,
	// not first.
	var warnings []Issue
	for i, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		if i > 0 {
			warnings = append(warnings, warnIssue(CodeRowSkipped,
				fmt.Sprintf("sheet %q used; %d earlier empty sheet(s) skipped", sheet, i), 0))
		}
		for r := range rows {
			for c := range rows[r] {
				rows[r][c] = strings.TrimSpace(rows[r][c])
			}
		}
		return rows, warnings, nil
	}
	return nil, nil, fmt.Errorf("workbook has no data rows")
}
