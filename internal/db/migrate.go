package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent; the list is
// re-run in full on every startup.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS producers (
		id                  TEXT PRIMARY KEY,
		phone               TEXT UNIQUE NOT NULL,
		name                TEXT NOT NULL DEFAULT '',
		zone                TEXT NOT NULL DEFAULT '',
		preferred_language  TEXT NOT NULL DEFAULT 'es',
		allowed             INTEGER NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'active'
		                    CHECK(status IN ('active','inactive')),
		timezone            TEXT NOT NULL,
		last_checkin_date   TEXT,
		assigned_role       TEXT,
		enable_formulario   INTEGER NOT NULL DEFAULT 1,
		enable_consulta     INTEGER NOT NULL DEFAULT 1,
		enable_intervencion INTEGER NOT NULL DEFAULT 1,
		created_at          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS forms (
		id             TEXT PRIMARY KEY,
		producer_id    TEXT NOT NULL REFERENCES producers(id) ON DELETE CASCADE,
		status         TEXT NOT NULL DEFAULT 'open'
		               CHECK(status IN ('open','closed')),
		crop           TEXT NOT NULL DEFAULT '',
		symptom        TEXT NOT NULL DEFAULT '',
		problem_onset  TEXT NOT NULL DEFAULT '',
		photo_received INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_forms_producer ON forms(producer_id, status)`,

	`CREATE TABLE IF NOT EXISTS alerts (
		id          TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL REFERENCES producers(id) ON DELETE CASCADE,
		level       TEXT NOT NULL DEFAULT 'medium'
		            CHECK(level IN ('low','medium','high')),
		reason      TEXT NOT NULL,
		action      TEXT NOT NULL,
		message     TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'open'
		            CHECK(status IN ('open','sent')),
		created_at  TEXT NOT NULL,
		sent_at     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id          TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL REFERENCES producers(id) ON DELETE CASCADE,
		direction   TEXT NOT NULL CHECK(direction IN ('user','assistant')),
		content     TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_producer ON messages(producer_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS log_types (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS agent_configs (
		id          TEXT PRIMARY KEY,
		role        TEXT UNIQUE NOT NULL
		            CHECK(role IN ('formulario','consulta','intervencion')),
		enabled     INTEGER NOT NULL DEFAULT 1,
		description TEXT NOT NULL DEFAULT '',
		prompt      TEXT NOT NULL,
		max_tokens  INTEGER NOT NULL DEFAULT 300
	)`,

	`CREATE TABLE IF NOT EXISTS plans (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		targets_json TEXT NOT NULL DEFAULT '{}',
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS plan_assignments (
		id          TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL REFERENCES producers(id) ON DELETE CASCADE,
		plan_id     TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		start_date  TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','completed','cancelled')),
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_assignments_producer ON plan_assignments(producer_id, status)`,

	`CREATE TABLE IF NOT EXISTS plan_templates (
		id         TEXT PRIMARY KEY,
		crop_type  TEXT NOT NULL,
		tasks_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		producer_id     TEXT NOT NULL REFERENCES producers(id) ON DELETE CASCADE,
		template_id     TEXT NOT NULL REFERENCES plan_templates(id) ON DELETE CASCADE,
		name            TEXT NOT NULL,
		seq             INTEGER NOT NULL,
		status          TEXT NOT NULL DEFAULT 'PENDING',
		estimated_date  TEXT,
		completion_date TEXT,
		progress_pct    INTEGER,
		blocker_reason  TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_producer ON tasks(producer_id, template_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

	`CREATE TABLE IF NOT EXISTS daily_logs (
		id           TEXT PRIMARY KEY,
		producer_id  TEXT NOT NULL REFERENCES producers(id) ON DELETE CASCADE,
		plan_id      TEXT REFERENCES plans(id) ON DELETE SET NULL,
		log_type_id  TEXT REFERENCES log_types(id) ON DELETE SET NULL,
		log_date     TEXT NOT NULL,
		notes        TEXT NOT NULL DEFAULT '',
		metrics_json TEXT NOT NULL DEFAULT '{}',
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_daily_logs_producer ON daily_logs(producer_id, log_date, created_at)`,
}
