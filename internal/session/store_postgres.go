package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"compass/internal/employee/models"
	"compass/pkg/sentinel"
)

// Schema holds the tables the postgres stores need. Applied at startup; both
// statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS employees (
	employee_id TEXT PRIMARY KEY,
	position    INT NOT NULL,
	payload     JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	singleton  BOOL PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema applies the store schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply session schema: %w", err)
	}
	return nil
}

// PostgresEmployeeStore persists the employee collection as one JSONB row per
// employee, keeping join order in the position column.
type PostgresEmployeeStore struct {
	db *sql.DB
}

func NewPostgresEmployeeStore(db *sql.DB) *PostgresEmployeeStore {
	return &PostgresEmployeeStore{db: db}
}

func (s *PostgresEmployeeStore) ReplaceAll(ctx context.Context, employees []*models.Employee) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace employees: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("clear employees: %w", err)
	}
	for i, emp := range employees {
		payload, err := json.Marshal(emp)
		if err != nil {
			return fmt.Errorf("marshal employee %s: %w", emp.EmployeeID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO employees (employee_id, position, payload)
			VALUES ($1, $2, $3)
			ON CONFLICT (employee_id) DO UPDATE SET payload = EXCLUDED.payload
		`, emp.EmployeeID, i, payload)
		if err != nil {
			return fmt.Errorf("insert employee %s: %w", emp.EmployeeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace employees: %w", err)
	}
	return nil
}

func (s *PostgresEmployeeStore) List(ctx context.Context) ([]*models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM employees ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var out []*models.Employee
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		var emp models.Employee
		if err := json.Unmarshal(payload, &emp); err != nil {
			return nil, fmt.Errorf("unmarshal employee: %w", err)
		}
		out = append(out, &emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

func (s *PostgresEmployeeStore) Get(ctx context.Context, employeeID string) (*models.Employee, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM employees WHERE employee_id = $1`, employeeID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee %s: %w", employeeID, err)
	}
	var emp models.Employee
	if err := json.Unmarshal(payload, &emp); err != nil {
		return nil, fmt.Errorf("unmarshal employee %s: %w", employeeID, err)
	}
	return &emp, nil
}

func (s *PostgresEmployeeStore) Update(ctx context.Context, emp *models.Employee) error {
	payload, err := json.Marshal(emp)
	if err != nil {
		return fmt.Errorf("marshal employee %s: %w", emp.EmployeeID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET payload = $2 WHERE employee_id = $1`, emp.EmployeeID, payload)
	if err != nil {
		return fmt.Errorf("update employee %s: %w", emp.EmployeeID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update employee %s: %w", emp.EmployeeID, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresEmployeeStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("clear employees: %w", err)
	}
	return nil
}

// PostgresSessionStore keeps the single current session in a one-row table.
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (singleton, payload, updated_at)
		VALUES (TRUE, $1, now())
		ON CONFLICT (singleton) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, payload)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Current(ctx context.Context) (Session, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM sessions WHERE singleton`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("query session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

func (s *PostgresSessionStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
