package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

// SQLiteMessageRepo implements MessageRepo over a DBTX.
type SQLiteMessageRepo struct {
	db db.DBTX
}

// NewSQLiteMessageRepo creates a new SQLiteMessageRepo.
func NewSQLiteMessageRepo(db db.DBTX) *SQLiteMessageRepo {
	return &SQLiteMessageRepo{db: db}
}

func (r *SQLiteMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	query := `INSERT INTO messages (id, producer_id, direction, content, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.ProducerID,
		string(m.Direction),
		m.Content,
		m.Status,
		m.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (r *SQLiteMessageRepo) ListRecent(ctx context.Context, producerID string, limit int) ([]*domain.Message, error) {
	query := `SELECT id, producer_id, direction, content, status, created_at
		FROM messages
		WHERE producer_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, producerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent messages: %w", err)
	}
	defer rows.Close()

	var newestFirst []*domain.Message
	for rows.Next() {
		var m domain.Message
		var directionStr, createdAtStr string
		if err := rows.Scan(&m.ID, &m.ProducerID, &directionStr, &m.Content, &m.Status, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Direction = domain.MessageDirection(directionStr)
		if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			m.CreatedAt = t
		}
		newestFirst = append(newestFirst, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query selects newest-first to honor the limit; callers want
	// chronological order.
	chronological := make([]*domain.Message, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		chronological = append(chronological, newestFirst[i])
	}
	return chronological, nil
}
