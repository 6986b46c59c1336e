package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

const taskColumns = `id, producer_id, template_id, name, seq, status,
		estimated_date, completion_date, progress_pct, blocker_reason,
		created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo over a DBTX.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ProducerID,
		t.TemplateID,
		t.Name,
		t.Sequence,
		string(t.Status),
		nullableStr(t.EstimatedDate),
		nullableStr(t.CompletionDate),
		nullableIntPtr(t.ProgressPct),
		nullableStrPtr(t.BlockerReason),
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := scanTaskFrom(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task: %w", ErrNotFound)
	}
	return t, err
}

func (r *SQLiteTaskRepo) ListByProducer(ctx context.Context, producerID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE producer_id = ? ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, query, producerID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTaskFrom(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLiteTaskRepo) GetActiveByProducer(ctx context.Context, producerID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE producer_id = ?
		  AND status IN ('PENDING', 'IN_PROGRESS', 'BLOCKED')
		ORDER BY seq ASC
		LIMIT 1`
	t, err := scanTaskFrom(r.db.QueryRowContext(ctx, query, producerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active task: %w", ErrNotFound)
	}
	return t, err
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks
		SET status = ?, estimated_date = ?, completion_date = ?,
		    progress_pct = ?, blocker_reason = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(t.Status),
		nullableStr(t.EstimatedDate),
		nullableStr(t.CompletionDate),
		nullableIntPtr(t.ProgressPct),
		nullableStrPtr(t.BlockerReason),
		nowUTC(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteTaskRepo) ShiftEstimatedDates(ctx context.Context, producerID, templateID string, afterSeq, delayDays int) (int, error) {
	// SQLite date arithmetic accepts signed day modifiers, so a negative
	// delay pulls later tasks earlier.
	query := `UPDATE tasks
		SET estimated_date = date(estimated_date, ? || ' days'),
		    updated_at = ?
		WHERE producer_id = ?
		  AND template_id = ?
		  AND seq > ?
		  AND estimated_date IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, delayDays, nowUTC(), producerID, templateID, afterSeq)
	if err != nil {
		return 0, fmt.Errorf("shifting estimated dates: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("shifting estimated dates: %w", err)
	}
	return int(n), nil
}

func scanTaskFrom(s rowScanner) (*domain.Task, error) {
	var t domain.Task
	var statusStr, createdAtStr, updatedAtStr string
	var estimated, completion, blocker sql.NullString
	var progress sql.NullInt64

	err := s.Scan(
		&t.ID, &t.ProducerID, &t.TemplateID, &t.Name, &t.Sequence, &statusStr,
		&estimated, &completion, &progress, &blocker,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Status = domain.TaskStatus(statusStr)
	t.EstimatedDate = strFromNullable(estimated)
	t.CompletionDate = strFromNullable(completion)
	t.ProgressPct = intPtrFromNullable(progress)
	t.BlockerReason = strPtrFromNullable(blocker)
	if ts, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, updatedAtStr); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}
