package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// PostgresStore reads case records from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *Case) error {
	const query = `
		INSERT INTO cases (id, number, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, c.ID.UUID(), c.Number, c.Title, c.Status, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*Case, error) {
	const query = `
		SELECT id, number, title, status, created_at
		FROM cases WHERE id = $1
	`
	var (
		c     Case
		rawID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, caseID.UUID()).
		Scan(&rawID, &c.Number, &c.Title, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	c.ID = id.CaseID(rawID)
	return &c, nil
}
