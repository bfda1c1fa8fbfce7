// Package postgres opens the shared database handle and applies the schema
// on startup so a fresh database is usable without a separate migration run.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Open connects, pings, and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the DDL. Statements are idempotent; ledger tables are
// append-only by convention and carry no UPDATE path in any store.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id           UUID PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	role         TEXT NOT NULL,
	station      TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS cases (
	id         UUID PRIMARY KEY,
	number     TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_items (
	id             UUID PRIMARY KEY,
	case_id        UUID NOT NULL REFERENCES cases (id),
	code           TEXT NOT NULL UNIQUE,
	description    TEXT NOT NULL,
	category       TEXT NOT NULL,
	station        TEXT NOT NULL,
	logged_by      UUID NOT NULL REFERENCES accounts (id),
	attachment_ref TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS evidence_items_case_created_idx
	ON evidence_items (case_id, created_at DESC);

CREATE TABLE IF NOT EXISTS custody_states (
	evidence_id UUID PRIMARY KEY REFERENCES evidence_items (id),
	holder_id   UUID NOT NULL REFERENCES accounts (id),
	location    TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transfer_entries (
	id             UUID PRIMARY KEY,
	evidence_id    UUID NOT NULL REFERENCES evidence_items (id),
	case_id        UUID NOT NULL REFERENCES cases (id),
	initiated_by   UUID NOT NULL REFERENCES accounts (id),
	from_holder    UUID NOT NULL,
	to_holder      UUID NOT NULL,
	from_location  TEXT NOT NULL,
	to_location    TEXT NOT NULL,
	reason         TEXT NOT NULL,
	transferred_at TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transfer_entries_evidence_created_idx
	ON transfer_entries (evidence_id, created_at DESC);

CREATE TABLE IF NOT EXISTS notification_entries (
	id           UUID PRIMARY KEY,
	event_type   TEXT NOT NULL,
	recipient    TEXT NOT NULL,
	subject      TEXT NOT NULL,
	reference_id UUID NOT NULL,
	status       TEXT NOT NULL,
	error_detail TEXT NOT NULL DEFAULT '',
	attempted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS notification_entries_reference_idx
	ON notification_entries (reference_id, attempted_at DESC);

CREATE TABLE IF NOT EXISTS audit_entries (
	id          UUID PRIMARY KEY,
	actor_id    UUID NOT NULL,
	actor_name  TEXT NOT NULL,
	action      TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	detail      JSONB NOT NULL DEFAULT '{}',
	source_ip   TEXT NOT NULL DEFAULT '',
	device      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_entries_created_idx
	ON audit_entries (created_at DESC);

CREATE TABLE IF NOT EXISTS evidence_code_counters (
	year     INT PRIMARY KEY,
	next_seq BIGINT NOT NULL
);
`
