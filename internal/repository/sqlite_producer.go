package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

// producerColumns is the canonical SELECT column list for producers.
const producerColumns = `id, phone, name, zone, preferred_language, allowed, status,
		timezone, last_checkin_date, assigned_role,
		enable_formulario, enable_consulta, enable_intervencion, created_at`

// SQLiteProducerRepo implements ProducerRepo over a DBTX.
type SQLiteProducerRepo struct {
	db db.DBTX
}

// NewSQLiteProducerRepo creates a new SQLiteProducerRepo.
func NewSQLiteProducerRepo(db db.DBTX) *SQLiteProducerRepo {
	return &SQLiteProducerRepo{db: db}
}

func (r *SQLiteProducerRepo) Create(ctx context.Context, p *domain.Producer) error {
	query := `INSERT INTO producers (` + producerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var role any
	if p.AssignedRole != nil {
		role = string(*p.AssignedRole)
	}
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Phone,
		p.Name,
		p.Zone,
		p.PreferredLanguage,
		boolToInt(p.Allowed),
		string(p.Status),
		p.Timezone,
		nullableStr(p.LastCheckinDate),
		role,
		boolToInt(p.EnableFormulario),
		boolToInt(p.EnableConsulta),
		boolToInt(p.EnableIntervencion),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting producer: %w", err)
	}
	return nil
}

func (r *SQLiteProducerRepo) GetByID(ctx context.Context, id string) (*domain.Producer, error) {
	query := `SELECT ` + producerColumns + ` FROM producers WHERE id = ?`
	return r.scanProducer(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteProducerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Producer, error) {
	query := `SELECT ` + producerColumns + ` FROM producers WHERE phone = ?`
	return r.scanProducer(r.db.QueryRowContext(ctx, query, phone))
}

func (r *SQLiteProducerRepo) List(ctx context.Context) ([]*domain.Producer, error) {
	query := `SELECT ` + producerColumns + ` FROM producers ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing producers: %w", err)
	}
	defer rows.Close()

	var producers []*domain.Producer
	for rows.Next() {
		p, err := r.scanProducerRow(rows)
		if err != nil {
			return nil, err
		}
		producers = append(producers, p)
	}
	return producers, rows.Err()
}

func (r *SQLiteProducerRepo) Update(ctx context.Context, p *domain.Producer) error {
	query := `UPDATE producers
		SET name = ?, zone = ?, preferred_language = ?, allowed = ?, status = ?,
		    timezone = ?, last_checkin_date = ?, assigned_role = ?,
		    enable_formulario = ?, enable_consulta = ?, enable_intervencion = ?
		WHERE id = ?`
	var role any
	if p.AssignedRole != nil {
		role = string(*p.AssignedRole)
	}
	res, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Zone,
		p.PreferredLanguage,
		boolToInt(p.Allowed),
		string(p.Status),
		p.Timezone,
		nullableStr(p.LastCheckinDate),
		role,
		boolToInt(p.EnableFormulario),
		boolToInt(p.EnableConsulta),
		boolToInt(p.EnableIntervencion),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating producer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating producer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("producer: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteProducerRepo) SetLastCheckin(ctx context.Context, id, date string) error {
	query := `UPDATE producers SET last_checkin_date = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, date, id); err != nil {
		return fmt.Errorf("setting last check-in: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteProducerRepo) scanProducer(row *sql.Row) (*domain.Producer, error) {
	p, err := scanProducerFrom(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("producer: %w", ErrNotFound)
	}
	return p, err
}

func (r *SQLiteProducerRepo) scanProducerRow(rows *sql.Rows) (*domain.Producer, error) {
	return scanProducerFrom(rows)
}

func scanProducerFrom(s rowScanner) (*domain.Producer, error) {
	var p domain.Producer
	var statusStr, createdAtStr string
	var lastCheckin, assignedRole sql.NullString
	var allowed, enableForm, enableConsulta, enableIntervencion int

	err := s.Scan(
		&p.ID, &p.Phone, &p.Name, &p.Zone, &p.PreferredLanguage,
		&allowed, &statusStr, &p.Timezone, &lastCheckin, &assignedRole,
		&enableForm, &enableConsulta, &enableIntervencion, &createdAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning producer: %w", err)
	}

	p.Allowed = intToBool(allowed)
	p.Status = domain.ProducerStatus(statusStr)
	p.LastCheckinDate = strFromNullable(lastCheckin)
	if assignedRole.Valid && assignedRole.String != "" {
		role := domain.Role(assignedRole.String)
		p.AssignedRole = &role
	}
	p.EnableFormulario = intToBool(enableForm)
	p.EnableConsulta = intToBool(enableConsulta)
	p.EnableIntervencion = intToBool(enableIntervencion)
	if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}
