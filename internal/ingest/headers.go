package ingest

import (
	"regexp"
	"strings"
)

const (
	// headerScanLimit bounds how deep into a file the header scan looks.
	headerScanLimit = 20
	// minHeaderCells is the minimum non-empty cell count for a header row.
	minHeaderCells = 3
)

// headerKeywords are domain words whose presence marks a row as the real
// header rather than report furniture.
var headerKeywords = []string{
	"employee", "associate", "worker", "staff",
	"salary", "pay", "comp",
	"performance", "rating", "grade",
	"name", "email",
}

// metadataRe matches first cells of report noise rows: titles, generation
// timestamps, filter descriptions, page numbers.
var metadataRe = regexp.MustCompile(`(?i)^\s*(report|generated|created on|as of|run date|filter|page \d|confidential|internal use|export|source:|criteria)`)

// isMetadataRow flags pre-header noise rows. It only ever applies to raw cell
// arrays: once rows have been mapped to field-keyed objects a blank first
// value is legitimate data, never a metadata marker.
func isMetadataRow(cells []string) bool {
	nonEmpty := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return true
	}
	first := firstNonEmptyCell(cells)
	// Noise rows are near-empty except for a title/timestamp cell.
	return nonEmpty <= 2 && metadataRe.MatchString(first)
}

func firstNonEmptyCell(cells []string) string {
	for _, c := range cells {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}

// detectHeader scans up to headerScanLimit cleaned rows for the first row with
// at least minHeaderCells non-empty cells and a recognizable domain keyword.
// If no keyword row exists it falls back to the first row meeting the cell
// count alone. Returns the header index, or -1 when nothing qualifies.
func detectHeader(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	fallback := -1
	for i := 0; i < limit; i++ {
		nonEmpty := 0
		hasKeyword := false
		for _, cell := range rows[i] {
			s := strings.TrimSpace(cell)
			if s == "" {
				continue
			}
			nonEmpty++
			lower := strings.ToLower(s)
			for _, kw := range headerKeywords {
				if strings.Contains(lower, kw) {
					hasKeyword = true
					break
				}
			}
		}
		if nonEmpty < minHeaderCells {
			continue
		}
		if hasKeyword {
			return i
		}
		if fallback == -1 {
			fallback = i
		}
	}
	return fallback
}

// cleanLeadingRows drops metadata and blank rows, but only ahead of the
// detected header. Rows after the header are preserved verbatim.
func cleanLeadingRows(rows [][]string) ([][]string, int) {
	dropped := 0
	for len(rows) > 0 && isMetadataRow(rows[0]) {
		rows = rows[1:]
		dropped++
	}
	return rows, dropped
}
