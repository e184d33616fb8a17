package postgres

import (
	"context"
)

const actionEnsureSchema = "ensure-schema"

// schemaSQL creates everything the backend needs. The partial unique index
// on open reservations is the structural form of the core invariant: at most
// one reservation per book with returned_at still NULL.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,

	can_create_books BOOLEAN NOT NULL DEFAULT FALSE,
	can_update_books BOOLEAN NOT NULL DEFAULT FALSE,
	can_delete_books BOOLEAN NOT NULL DEFAULT FALSE,
	can_update_users BOOLEAN NOT NULL DEFAULT FALSE,
	can_delete_users BOOLEAN NOT NULL DEFAULT FALSE,

	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS books (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	genre TEXT,
	publisher TEXT,
	published_at DATE,
	is_available BOOLEAN NOT NULL DEFAULT TRUE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reservations (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	book_id BIGINT NOT NULL REFERENCES books(id),
	reserved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	returned_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS reservations_one_open_per_book
	ON reservations (book_id)
	WHERE returned_at IS NULL;

CREATE TABLE IF NOT EXISTS reservation_events (
	event_id UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL
);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
// It is idempotent and safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.exec(ctx, s.db, actionEnsureSchema, schemaSQL)

	return err
}
