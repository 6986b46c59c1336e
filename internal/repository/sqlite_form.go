package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

const formColumns = `id, producer_id, status, crop, symptom, problem_onset,
		photo_received, created_at, updated_at`

// SQLiteFormRepo implements FormRepo over a DBTX.
type SQLiteFormRepo struct {
	db db.DBTX
}

// NewSQLiteFormRepo creates a new SQLiteFormRepo.
func NewSQLiteFormRepo(db db.DBTX) *SQLiteFormRepo {
	return &SQLiteFormRepo{db: db}
}

func (r *SQLiteFormRepo) Create(ctx context.Context, f *domain.Form) error {
	query := `INSERT INTO forms (` + formColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		f.ID,
		f.ProducerID,
		string(f.Status),
		f.Crop,
		f.Symptom,
		f.ProblemOnset,
		boolToInt(f.PhotoReceived),
		f.CreatedAt.Format(time.RFC3339),
		f.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting form: %w", err)
	}
	return nil
}

func (r *SQLiteFormRepo) GetOpenByProducer(ctx context.Context, producerID string) (*domain.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms
		WHERE producer_id = ? AND status = 'open'
		ORDER BY created_at DESC
		LIMIT 1`
	f, err := scanFormFrom(r.db.QueryRowContext(ctx, query, producerID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("open form: %w", ErrNotFound)
	}
	return f, err
}

func (r *SQLiteFormRepo) ListByProducer(ctx context.Context, producerID string) ([]*domain.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms
		WHERE producer_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, producerID)
	if err != nil {
		return nil, fmt.Errorf("listing forms: %w", err)
	}
	defer rows.Close()

	var forms []*domain.Form
	for rows.Next() {
		f, err := scanFormFrom(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (r *SQLiteFormRepo) Update(ctx context.Context, f *domain.Form) error {
	query := `UPDATE forms
		SET crop = ?, symptom = ?, problem_onset = ?, photo_received = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		f.Crop,
		f.Symptom,
		f.ProblemOnset,
		boolToInt(f.PhotoReceived),
		nowUTC(),
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating form: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating form: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("form: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteFormRepo) SetStatus(ctx context.Context, id string, status domain.FormStatus) error {
	query := `UPDATE forms SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, string(status), nowUTC(), id); err != nil {
		return fmt.Errorf("setting form status: %w", err)
	}
	return nil
}

func scanFormFrom(s rowScanner) (*domain.Form, error) {
	var f domain.Form
	var statusStr, createdAtStr, updatedAtStr string
	var photoReceived int

	err := s.Scan(
		&f.ID, &f.ProducerID, &statusStr, &f.Crop, &f.Symptom, &f.ProblemOnset,
		&photoReceived, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning form: %w", err)
	}

	f.Status = domain.FormStatus(statusStr)
	f.PhotoReceived = intToBool(photoReceived)
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		f.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAtStr); err == nil {
		f.UpdatedAt = t
	}
	return &f, nil
}
