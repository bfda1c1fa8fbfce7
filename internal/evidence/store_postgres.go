package evidence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"custodia/internal/attachment"
	"custodia/internal/custody"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

type PostgresStore struct {
	db         *sql.DB
	codePrefix string
}

func NewPostgres(db *sql.DB, codePrefix string) *PostgresStore {
	return &PostgresStore{db: db, codePrefix: codePrefix}
}

// CreateWithCustody allocates the year's next sequence number, inserts the
// catalog row, and writes the initial custody row in one transaction. The
// counter row is locked by the upsert, so concurrent loggers serialize on
// code assignment and no number is handed out twice.
func (s *PostgresStore) CreateWithCustody(ctx context.Context, item *Item, state custody.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evidence tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const counterQuery = `
		INSERT INTO evidence_code_counters (year, next_seq)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET next_seq = evidence_code_counters.next_seq + 1
		RETURNING next_seq
	`
	year := item.CreatedAt.UTC().Year()
	var seq int64
	if err := tx.QueryRowContext(ctx, counterQuery, year).Scan(&seq); err != nil {
		return fmt.Errorf("allocate evidence code: %w", err)
	}
	item.Code = FormatCode(s.codePrefix, year, seq)

	const itemQuery = `
		INSERT INTO evidence_items
			(id, case_id, code, description, category, station, logged_by, attachment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, itemQuery,
		item.ID.UUID(), item.CaseID.UUID(), item.Code, item.Description,
		item.Category, item.Station, item.LoggedBy.UUID(),
		string(item.AttachmentRef), item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert evidence item: %w", err)
	}

	const stateQuery = `
		INSERT INTO custody_states (evidence_id, holder_id, location, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = tx.ExecContext(ctx, stateQuery,
		state.EvidenceID.UUID(), state.HolderID.UUID(), state.Location, state.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert initial custody state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evidence tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, evidenceID id.EvidenceID) (*Item, error) {
	const query = selectItems + ` WHERE id = $1`
	item, err := scanItem(s.db.QueryRowContext(ctx, query, evidenceID.UUID()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find evidence item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID id.CaseID) ([]*Item, error) {
	const query = selectItems + ` WHERE case_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, caseID.UUID())
	if err != nil {
		return nil, fmt.Errorf("list evidence by case: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *PostgresStore) Search(ctx context.Context, q SearchQuery) ([]*Item, int, error) {
	page, pageSize := q.Page, q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	term := "%" + q.Term + "%"

	const countQuery = `
		SELECT count(*) FROM evidence_items
		WHERE $1 = '%%' OR code ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
	`
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, term).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count evidence items: %w", err)
	}

	query := selectItems + `
		WHERE $1 = '%%' OR code ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, term, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("search evidence items: %w", err)
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

const selectItems = `
	SELECT id, case_id, code, description, category, station, logged_by, attachment_ref, created_at
	FROM evidence_items
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item        Item
		rawID       uuid.UUID
		rawCaseID   uuid.UUID
		rawLoggedBy uuid.UUID
		ref         string
	)
	err := row.Scan(&rawID, &rawCaseID, &item.Code, &item.Description,
		&item.Category, &item.Station, &rawLoggedBy, &ref, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.ID = id.EvidenceID(rawID)
	item.CaseID = id.CaseID(rawCaseID)
	item.LoggedBy = id.UserID(rawLoggedBy)
	item.AttachmentRef = attachment.Ref(ref)
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evidence item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence items: %w", err)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
