package ingest

import dErrors "compass/pkg/domain-errors"

// Table extracts the raw cell grid from a file, drops pre-header noise, and
// splits off the header row. It is the shared front half of the per-type
// parsers, exported for sheet formats that bring their own synonym table.
func Table(fileName string, data []byte) (header []string, rows [][]string, warnings []Issue, err error) {
	grid, warnings, err := readCells(fileName, data)
	if err != nil {
		return nil, nil, warnings, dErrors.Wrap(err, dErrors.CodeUnprocessableFile, "file could not be read")
	}
	cleaned, _ := cleanLeadingRows(grid)
	headerIdx := detectHeader(cleaned)
	if headerIdx < 0 {
		return nil, nil, warnings, dErrors.New(dErrors.CodeUnprocessableFile, "no header row found")
	}
	return cleaned[headerIdx], cleaned[headerIdx+1:], warnings, nil
}

// MapColumns resolves a header row against a synonym table into column index
// to canonical field, the same way the built-in salary and performance
// mappings are resolved.
func MapColumns(header []string, synonyms map[string]string) map[int]string {
	return columnMap(header, synonyms)
}

// ParseNumber exposes the numeric cell coercion for external mapping tables.
func ParseNumber(raw string) (float64, bool) {
	return parseNumber(raw)
}

// ParseBool exposes the boolean cell coercion for external mapping tables.
func ParseBool(raw string) bool {
	return parseBool(raw)
}
