package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "custodia/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, entry *Entry) error {
	const query = `
		INSERT INTO audit_entries
			(id, actor_id, actor_name, action, target_type, target_id,
			 detail, source_ip, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	detail := entry.Detail
	if len(detail) == 0 {
		detail = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.ActorID.UUID(), entry.ActorName, entry.Action,
		entry.TargetType, entry.TargetID, []byte(detail),
		entry.SourceIP, entry.Device, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, actor_id, actor_name, action, target_type, target_id,
		       detail, source_ip, device, created_at
		FROM audit_entries
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			entry      Entry
			rawActorID uuid.UUID
			detail     []byte
		)
		if err := rows.Scan(&entry.ID, &rawActorID, &entry.ActorName,
			&entry.Action, &entry.TargetType, &entry.TargetID, &detail,
			&entry.SourceIP, &entry.Device, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ActorID = id.UserID(rawActorID)
		entry.Detail = detail
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
