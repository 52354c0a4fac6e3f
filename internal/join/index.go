package join

import (
	"strings"

	"compass/internal/employee/models"
	"compass/internal/names"
)

// perfIndex holds the performance rows of one join call, indexed by every key
// the cascade can look up. Rows are consumed at most once: a claimed row is
// skipped by all later lookups.
type perfIndex struct {
	rows     []models.PerformanceRow
	byID     map[string]int
	byEmail  map[string]int
	nameKeys []string
	consumed []bool
}

func buildPerfIndex(rows []models.PerformanceRow) *perfIndex {
	idx := &perfIndex{
		rows:     rows,
		byID:     make(map[string]int, len(rows)),
		byEmail:  make(map[string]int, len(rows)),
		nameKeys: make([]string, len(rows)),
		consumed: make([]bool, len(rows)),
	}
	for i, row := range rows {
		if id := normalizeID(row.EmployeeID); id != "" {
			if _, dup := idx.byID[id]; !dup {
				idx.byID[id] = i
			}
		}
		if email := normalizeEmail(row.Email); email != "" {
			if _, dup := idx.byEmail[email]; !dup {
				idx.byEmail[email] = i
			}
		}
		idx.nameKeys[i] = names.MatchKey(row.FullName())
	}
	return idx
}

// claimByID consumes the row with the given normalized employee ID.
func (x *perfIndex) claimByID(id string) (models.PerformanceRow, bool) {
	return x.claim(x.byID, normalizeID(id))
}

// claimByEmail consumes the row with the given email.
func (x *perfIndex) claimByEmail(email string) (models.PerformanceRow, bool) {
	return x.claim(x.byEmail, normalizeEmail(email))
}

func (x *perfIndex) claim(table map[string]int, key string) (models.PerformanceRow, bool) {
	if key == "" {
		return models.PerformanceRow{}, false
	}
	i, ok := table[key]
	if !ok || x.consumed[i] {
		return models.PerformanceRow{}, false
	}
	x.consumed[i] = true
	return x.rows[i], true
}

// claimByName consumes the unconsumed row whose name key scores highest
// against nameKey, provided the score exceeds threshold. Ties keep the
// earliest row, matching input order.
func (x *perfIndex) claimByName(nameKey string, threshold float64) (models.PerformanceRow, bool) {
	if nameKey == "" {
		return models.PerformanceRow{}, false
	}
	best := -1
	bestScore := 0.0
	for i := range x.rows {
		if x.consumed[i] || x.nameKeys[i] == "" {
			continue
		}
		score := nameSimilarity(nameKey, x.nameKeys[i])
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 || bestScore <= threshold {
		return models.PerformanceRow{}, false
	}
	x.consumed[best] = true
	return x.rows[best], true
}

// unconsumed returns the rows no salary row claimed.
func (x *perfIndex) unconsumed() []models.PerformanceRow {
	var out []models.PerformanceRow
	for i, row := range x.rows {
		if !x.consumed[i] {
			out = append(out, row)
		}
	}
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
