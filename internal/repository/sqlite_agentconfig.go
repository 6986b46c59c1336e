package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
)

// SQLiteAgentConfigRepo implements AgentConfigRepo over a DBTX.
type SQLiteAgentConfigRepo struct {
	db db.DBTX
}

// NewSQLiteAgentConfigRepo creates a new SQLiteAgentConfigRepo.
func NewSQLiteAgentConfigRepo(db db.DBTX) *SQLiteAgentConfigRepo {
	return &SQLiteAgentConfigRepo{db: db}
}

func (r *SQLiteAgentConfigRepo) GetByRole(ctx context.Context, role domain.Role) (*domain.AgentConfig, error) {
	query := `SELECT id, role, enabled, description, prompt, max_tokens
		FROM agent_configs WHERE role = ?`
	c, err := scanAgentConfigFrom(r.db.QueryRowContext(ctx, query, string(role)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent config %q: %w", role, ErrNotFound)
	}
	return c, err
}

func (r *SQLiteAgentConfigRepo) List(ctx context.Context) ([]*domain.AgentConfig, error) {
	query := `SELECT id, role, enabled, description, prompt, max_tokens
		FROM agent_configs ORDER BY role`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing agent configs: %w", err)
	}
	defer rows.Close()

	var configs []*domain.AgentConfig
	for rows.Next() {
		c, err := scanAgentConfigFrom(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func (r *SQLiteAgentConfigRepo) Upsert(ctx context.Context, c *domain.AgentConfig) error {
	query := `INSERT INTO agent_configs (id, role, enabled, description, prompt, max_tokens)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(role) DO UPDATE SET
			enabled = excluded.enabled,
			description = excluded.description,
			prompt = excluded.prompt,
			max_tokens = excluded.max_tokens`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		string(c.Role),
		boolToInt(c.Enabled),
		c.Description,
		c.Prompt,
		c.MaxTokens,
	)
	if err != nil {
		return fmt.Errorf("upserting agent config: %w", err)
	}
	return nil
}

func scanAgentConfigFrom(s rowScanner) (*domain.AgentConfig, error) {
	var c domain.AgentConfig
	var roleStr string
	var enabled int

	err := s.Scan(&c.ID, &roleStr, &enabled, &c.Description, &c.Prompt, &c.MaxTokens)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning agent config: %w", err)
	}

	c.Role = domain.Role(roleStr)
	c.Enabled = intToBool(enabled)
	return &c, nil
}
