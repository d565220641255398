package db

import "context"

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so this is safe to run on every startup.
func Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT,
			department TEXT,
			designation TEXT,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			basic_salary NUMERIC(12,2) NOT NULL DEFAULT 0,
			allowances NUMERIC(12,2) NOT NULL DEFAULT 0,
			deductions NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			key TEXT PRIMARY KEY,
			user_a INT NOT NULL REFERENCES employees(id),
			user_b INT NOT NULL REFERENCES employees(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			conversation_key TEXT NOT NULL REFERENCES conversations(key),
			sender_id INT NOT NULL REFERENCES employees(id),
			receiver_id INT NOT NULL REFERENCES employees(id),
			type TEXT NOT NULL DEFAULT 'text',
			content TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'sent',
			edited BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_for_sender BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_for_receiver BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_for_everyone BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages (conversation_key, created_at, id)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			id SERIAL PRIMARY KEY,
			employee_id INT NOT NULL REFERENCES employees(id),
			day DATE NOT NULL,
			punch_in TIMESTAMPTZ,
			punch_out TIMESTAMPTZ,
			UNIQUE (employee_id, day)
		)`,
		`CREATE TABLE IF NOT EXISTS leave_requests (
			id SERIAL PRIMARY KEY,
			employee_id INT NOT NULL REFERENCES employees(id),
			leave_type TEXT NOT NULL,
			from_day DATE NOT NULL,
			to_day DATE NOT NULL,
			days INT NOT NULL,
			reason TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			decided_by INT REFERENCES employees(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
