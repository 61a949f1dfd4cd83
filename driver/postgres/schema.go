package postgres

import (
	"context"
	"fmt"
)

// schema is applied at startup. Idempotent; production deployments can
// keep running it on every boot.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	username      VARCHAR(20) NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	image_file    TEXT NOT NULL DEFAULT 'default.jpg',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title      VARCHAR(100) NOT NULL,
	content    TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'General',
	user_id    BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS posts_created_at_id_idx ON posts (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS posts_user_id_idx ON posts (user_id);
`

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
