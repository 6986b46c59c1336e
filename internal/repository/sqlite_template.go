package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

// SQLiteTemplateRepo implements TemplateRepo over a DBTX.
type SQLiteTemplateRepo struct {
	db db.DBTX
}

// NewSQLiteTemplateRepo creates a new SQLiteTemplateRepo.
func NewSQLiteTemplateRepo(db db.DBTX) *SQLiteTemplateRepo {
	return &SQLiteTemplateRepo{db: db}
}

func (r *SQLiteTemplateRepo) Create(ctx context.Context, t *domain.PlanTemplate) error {
	tasksJSON, err := json.Marshal(t.Tasks)
	if err != nil {
		return fmt.Errorf("encoding template tasks: %w", err)
	}
	query := `INSERT INTO plan_templates (id, crop_type, tasks_json, created_at)
		VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.CropType,
		string(tasksJSON),
		t.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("inserting plan template: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateRepo) GetByID(ctx context.Context, id string) (*domain.PlanTemplate, error) {
	query := `SELECT id, crop_type, tasks_json, created_at FROM plan_templates WHERE id = ?`
	t, err := scanTemplateFrom(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan template: %w", ErrNotFound)
	}
	return t, err
}

func (r *SQLiteTemplateRepo) List(ctx context.Context) ([]*domain.PlanTemplate, error) {
	query := `SELECT id, crop_type, tasks_json, created_at FROM plan_templates ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing plan templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.PlanTemplate
	for rows.Next() {
		t, err := scanTemplateFrom(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *SQLiteTemplateRepo) Update(ctx context.Context, t *domain.PlanTemplate) error {
	tasksJSON, err := json.Marshal(t.Tasks)
	if err != nil {
		return fmt.Errorf("encoding template tasks: %w", err)
	}
	query := `UPDATE plan_templates SET crop_type = ?, tasks_json = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, t.CropType, string(tasksJSON), t.ID)
	if err != nil {
		return fmt.Errorf("updating plan template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating plan template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("plan template: %w", ErrNotFound)
	}
	return nil
}

func scanTemplateFrom(s rowScanner) (*domain.PlanTemplate, error) {
	var t domain.PlanTemplate
	var tasksJSON, createdAtStr string

	err := s.Scan(&t.ID, &t.CropType, &tasksJSON, &createdAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning plan template: %w", err)
	}

	if tasksJSON != "" {
		if err := json.Unmarshal([]byte(tasksJSON), &t.Tasks); err != nil {
			return nil, fmt.Errorf("decoding template tasks: %w", err)
		}
	}
	if ts, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		t.CreatedAt = ts
	}
	return &t, nil
}
