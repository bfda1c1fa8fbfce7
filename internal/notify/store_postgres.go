package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, entry *Entry) error {
	const query = `
		INSERT INTO notification_entries
			(id, event_type, recipient, subject, reference_id, status, error_detail, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, string(entry.EventType), entry.Recipient, entry.Subject,
		entry.ReferenceID, string(entry.Status), entry.ErrorDetail, entry.AttemptedAt)
	if err != nil {
		return fmt.Errorf("insert notification entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByReference(ctx context.Context, referenceID uuid.UUID) ([]*Entry, error) {
	const query = `
		SELECT id, event_type, recipient, subject, reference_id, status, error_detail, attempted_at
		FROM notification_entries
		WHERE reference_id = $1
		ORDER BY attempted_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, referenceID)
	if err != nil {
		return nil, fmt.Errorf("query notification entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.EventType, &entry.Recipient,
			&entry.Subject, &entry.ReferenceID, &entry.Status,
			&entry.ErrorDetail, &entry.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan notification entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification entries: %w", err)
	}
	return entries, nil
}
