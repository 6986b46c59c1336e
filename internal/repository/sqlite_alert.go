package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

const alertColumns = `id, producer_id, level, reason, action, message, status, created_at, sent_at`

// SQLiteAlertRepo implements AlertRepo over a DBTX.
type SQLiteAlertRepo struct {
	db db.DBTX
}

// NewSQLiteAlertRepo creates a new SQLiteAlertRepo.
func NewSQLiteAlertRepo(db db.DBTX) *SQLiteAlertRepo {
	return &SQLiteAlertRepo{db: db}
}

func (r *SQLiteAlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	query := `INSERT INTO alerts (` + alertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ProducerID,
		string(a.Level),
		a.Reason,
		a.Action,
		a.Message,
		string(a.Status),
		a.CreatedAt.Format(time.RFC3339),
		nullableTimeToString(a.SentAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

func (r *SQLiteAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = ?`
	a, err := scanAlertFrom(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert: %w", ErrNotFound)
	}
	return a, err
}

func (r *SQLiteAlertRepo) ListByProducer(ctx context.Context, producerID string) ([]*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE producer_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, producerID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		a, err := scanAlertFrom(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *SQLiteAlertRepo) ListPending(ctx context.Context) ([]PendingAlert, error) {
	query := `SELECT a.id, a.producer_id, a.level, a.reason, a.action, a.message,
			a.status, a.created_at, a.sent_at, p.phone
		FROM alerts a
		JOIN producers p ON p.id = a.producer_id
		WHERE a.status = 'open' AND a.sent_at IS NULL
		ORDER BY a.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing pending alerts: %w", err)
	}
	defer rows.Close()

	var pending []PendingAlert
	for rows.Next() {
		var a domain.Alert
		var levelStr, statusStr, createdAtStr, phone string
		var sentAt sql.NullString
		if err := rows.Scan(
			&a.ID, &a.ProducerID, &levelStr, &a.Reason, &a.Action, &a.Message,
			&statusStr, &createdAtStr, &sentAt, &phone,
		); err != nil {
			return nil, fmt.Errorf("scanning pending alert: %w", err)
		}
		a.Level = domain.AlertLevel(levelStr)
		a.Status = domain.AlertStatus(statusStr)
		a.SentAt = parseNullableTime(sentAt, time.RFC3339)
		if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			a.CreatedAt = t
		}
		pending = append(pending, PendingAlert{Alert: a, Phone: phone})
	}
	return pending, rows.Err()
}

func (r *SQLiteAlertRepo) MarkSent(ctx context.Context, id string) error {
	query := `UPDATE alerts SET status = 'sent', sent_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("marking alert sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking alert sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert: %w", ErrNotFound)
	}
	return nil
}

func scanAlertFrom(s rowScanner) (*domain.Alert, error) {
	var a domain.Alert
	var levelStr, statusStr, createdAtStr string
	var sentAt sql.NullString

	err := s.Scan(
		&a.ID, &a.ProducerID, &levelStr, &a.Reason, &a.Action, &a.Message,
		&statusStr, &createdAtStr, &sentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning alert: %w", err)
	}

	a.Level = domain.AlertLevel(levelStr)
	a.Status = domain.AlertStatus(statusStr)
	a.SentAt = parseNullableTime(sentAt, time.RFC3339)
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		a.CreatedAt = t
	}
	return &a, nil
}
