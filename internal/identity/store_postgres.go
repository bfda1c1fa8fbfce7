package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO accounts (id, email, display_name, role, station, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID.UUID(),
		strings.ToLower(account.Email),
		account.DisplayName,
		string(account.Role),
		account.Station,
		string(account.Status),
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Account, error) {
	const query = `
		SELECT id, email, display_name, role, station, status, created_at
		FROM accounts WHERE id = $1
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, userID.UUID()))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
		SELECT id, email, display_name, role, station, status, created_at
		FROM accounts WHERE email = $1
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (s *PostgresStore) scanAccount(row *sql.Row) (*Account, error) {
	var (
		account Account
		rawID   uuid.UUID
		role    string
		status  string
	)
	err := row.Scan(&rawID, &account.Email, &account.DisplayName, &role, &account.Station, &status, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.ID = id.UserID(rawID)
	account.Role = Role(role)
	account.Status = AccountStatus(status)
	return &account, nil
}
