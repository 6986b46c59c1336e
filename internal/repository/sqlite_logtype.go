package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

// SQLiteLogTypeRepo implements LogTypeRepo over a DBTX.
type SQLiteLogTypeRepo struct {
	db db.DBTX
}

// NewSQLiteLogTypeRepo creates a new SQLiteLogTypeRepo.
func NewSQLiteLogTypeRepo(db db.DBTX) *SQLiteLogTypeRepo {
	return &SQLiteLogTypeRepo{db: db}
}

func (r *SQLiteLogTypeRepo) Create(ctx context.Context, lt *domain.LogType) error {
	query := `INSERT INTO log_types (id, name, description, created_at)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		lt.ID,
		lt.Name,
		lt.Description,
		lt.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting log type: %w", err)
	}
	return nil
}

func (r *SQLiteLogTypeRepo) GetByID(ctx context.Context, id string) (*domain.LogType, error) {
	query := `SELECT id, name, description, created_at FROM log_types WHERE id = ?`
	var lt domain.LogType
	var createdAtStr string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&lt.ID, &lt.Name, &lt.Description, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("log type: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning log type: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		lt.CreatedAt = t
	}
	return &lt, nil
}

func (r *SQLiteLogTypeRepo) List(ctx context.Context) ([]*domain.LogType, error) {
	query := `SELECT id, name, description, created_at FROM log_types ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing log types: %w", err)
	}
	defer rows.Close()

	var logTypes []*domain.LogType
	for rows.Next() {
		var lt domain.LogType
		var createdAtStr string
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.Description, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning log type: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			lt.CreatedAt = t
		}
		logTypes = append(logTypes, &lt)
	}
	return logTypes, rows.Err()
}

func (r *SQLiteLogTypeRepo) Update(ctx context.Context, lt *domain.LogType) error {
	query := `UPDATE log_types SET name = ?, description = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, lt.Name, lt.Description, lt.ID)
	if err != nil {
		return fmt.Errorf("updating log type: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating log type: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("log type: %w", ErrNotFound)
	}
	return nil
}
