package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

const dailyLogColumns = `id, producer_id, plan_id, log_type_id, log_date, notes, metrics_json, created_at`

// SQLiteDailyLogRepo implements DailyLogRepo over a DBTX.
type SQLiteDailyLogRepo struct {
	db db.DBTX
}

// NewSQLiteDailyLogRepo creates a new SQLiteDailyLogRepo.
func NewSQLiteDailyLogRepo(db db.DBTX) *SQLiteDailyLogRepo {
	return &SQLiteDailyLogRepo{db: db}
}

func (r *SQLiteDailyLogRepo) Create(ctx context.Context, l *domain.DailyLog) error {
	query := `INSERT INTO daily_logs (` + dailyLogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.ProducerID,
		nullableStrPtr(l.PlanID),
		nullableStrPtr(l.LogTypeID),
		l.LogDate,
		l.Notes,
		metricsToJSON(l.Metrics),
		l.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting daily log: %w", err)
	}
	return nil
}

func (r *SQLiteDailyLogRepo) ListRecent(ctx context.Context, producerID string, limit int) ([]*domain.DailyLog, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs
		WHERE producer_id = ?
		ORDER BY log_date DESC, created_at DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, producerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing daily logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.DailyLog
	for rows.Next() {
		var l domain.DailyLog
		var planID, logTypeID sql.NullString
		var metricsJSON, createdAtStr string
		if err := rows.Scan(
			&l.ID, &l.ProducerID, &planID, &logTypeID, &l.LogDate,
			&l.Notes, &metricsJSON, &createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning daily log: %w", err)
		}
		l.PlanID = strPtrFromNullable(planID)
		l.LogTypeID = strPtrFromNullable(logTypeID)
		l.Metrics = metricsFromJSON(metricsJSON)
		if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			l.CreatedAt = t
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
