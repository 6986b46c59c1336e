package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

// SQLitePlanRepo implements PlanRepo over a DBTX.
type SQLitePlanRepo struct {
	db db.DBTX
}

// NewSQLitePlanRepo creates a new SQLitePlanRepo.
func NewSQLitePlanRepo(db db.DBTX) *SQLitePlanRepo {
	return &SQLitePlanRepo{db: db}
}

func (r *SQLitePlanRepo) Create(ctx context.Context, p *domain.Plan) error {
	query := `INSERT INTO plans (id, name, description, targets_json, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		metricsToJSON(p.Targets),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

func (r *SQLitePlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	query := `SELECT id, name, description, targets_json, created_at FROM plans WHERE id = ?`
	var p domain.Plan
	var targetsJSON, createdAtStr string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &targetsJSON, &createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning plan: %w", err)
	}
	p.Targets = metricsFromJSON(targetsJSON)
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}

// SQLiteAssignmentRepo implements AssignmentRepo over a DBTX.
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

// NewSQLiteAssignmentRepo creates a new SQLiteAssignmentRepo.
func NewSQLiteAssignmentRepo(db db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: db}
}

func (r *SQLiteAssignmentRepo) Create(ctx context.Context, a *domain.PlanAssignment) error {
	query := `INSERT INTO plan_assignments (id, producer_id, plan_id, start_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ProducerID,
		a.PlanID,
		a.StartDate,
		string(a.Status),
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting plan assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) GetActiveByProducer(ctx context.Context, producerID string) (*domain.ActivePlan, error) {
	query := `SELECT pa.id, pa.start_date, p.id, p.name, p.description, p.targets_json
		FROM plan_assignments pa
		JOIN plans p ON p.id = pa.plan_id
		WHERE pa.producer_id = ? AND pa.status = 'active'
		ORDER BY pa.start_date DESC, pa.created_at DESC
		LIMIT 1`
	var ap domain.ActivePlan
	var targetsJSON string
	err := r.db.QueryRowContext(ctx, query, producerID).Scan(
		&ap.AssignmentID, &ap.StartDate, &ap.PlanID, &ap.Name, &ap.Description, &targetsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active plan: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning active plan: %w", err)
	}
	ap.Targets = metricsFromJSON(targetsJSON)
	return &ap, nil
}

func (r *SQLiteAssignmentRepo) ListByProducer(ctx context.Context, producerID string) ([]*domain.PlanAssignment, error) {
	query := `SELECT id, producer_id, plan_id, start_date, status, created_at
		FROM plan_assignments
		WHERE producer_id = ?
		ORDER BY start_date DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, producerID)
	if err != nil {
		return nil, fmt.Errorf("listing plan assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*domain.PlanAssignment
	for rows.Next() {
		var a domain.PlanAssignment
		var statusStr, createdAtStr string
		if err := rows.Scan(&a.ID, &a.ProducerID, &a.PlanID, &a.StartDate, &statusStr, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning plan assignment: %w", err)
		}
		a.Status = domain.AssignmentStatus(statusStr)
		if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			a.CreatedAt = t
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

func (r *SQLiteAssignmentRepo) CancelActiveByProducer(ctx context.Context, producerID string) (int, error) {
	query := `UPDATE plan_assignments SET status = 'cancelled'
		WHERE producer_id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, query, producerID)
	if err != nil {
		return 0, fmt.Errorf("cancelling active assignments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancelling active assignments: %w", err)
	}
	return int(n), nil
}
