package session

import (
	"context"
	"time"

	"compass/internal/employee/models"
	"compass/internal/ingest"
	"compass/internal/policy"
)

// Session is the metadata of the single active planning session: which files
// were loaded, how many records survived the join, the budget, and the policy
// settings in force.
type Session struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	SourceFiles    []string        `json:"sourceFiles,omitempty"`
	EmployeeCount  int             `json:"employeeCount"`
	TotalBudgetUSD float64         `json:"totalBudgetUSD"`
	Settings       policy.Settings `json:"settings"`
}

// EmployeeStore persists the joined employee collection. The pipeline replaces
// the collection wholesale after a join and updates single records on
// interactive edits.
type EmployeeStore interface {
	ReplaceAll(ctx context.Context, employees []*models.Employee) error
	List(ctx context.Context) ([]*models.Employee, error)
	Get(ctx context.Context, employeeID string) (*models.Employee, error)
	Update(ctx context.Context, emp *models.Employee) error
	Clear(ctx context.Context) error
}

// SessionStore persists the single current session.
type SessionStore interface {
	Save(ctx context.Context, sess Session) error
	Current(ctx context.Context) (Session, error)
	Reset(ctx context.Context) error
}

// FileCache is the TTL cache of parsed files keyed by content hash, so
// re-uploading an unchanged export skips the parse.
type FileCache interface {
	Get(ctx context.Context, contentHash string) (*ingest.FileResult, bool)
	Set(ctx context.Context, contentHash string, result *ingest.FileResult)
	Clear(ctx context.Context)
}
