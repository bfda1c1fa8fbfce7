package custody

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// PostgresStore persists custody state and the transfer ledger in
// PostgreSQL. Serialization comes from a row-level exclusive lock on the
// custody_states row, so transfers on different items proceed in parallel.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateState(ctx context.Context, state State) error {
	const query = `
		INSERT INTO custody_states (evidence_id, holder_id, location, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		state.EvidenceID.UUID(), state.HolderID.UUID(), state.Location, state.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert custody state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Current(ctx context.Context, evidenceID id.EvidenceID) (State, error) {
	const query = `
		SELECT evidence_id, holder_id, location, updated_at
		FROM custody_states WHERE evidence_id = $1
	`
	var (
		state         State
		rawEvidenceID uuid.UUID
		rawHolderID   uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, evidenceID.UUID()).
		Scan(&rawEvidenceID, &rawHolderID, &state.Location, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, sentinel.ErrNotFound
		}
		return State{}, fmt.Errorf("scan custody state: %w", err)
	}
	state.EvidenceID = id.EvidenceID(rawEvidenceID)
	state.HolderID = id.UserID(rawHolderID)
	return state, nil
}

// ExecuteTransfer locks the custody row FOR UPDATE, runs decide against the
// locked state, and commits the ledger insert and state overwrite together.
// Any failure after the lock rolls the whole transaction back.
func (s *PostgresStore) ExecuteTransfer(ctx context.Context, evidenceID id.EvidenceID, decide DecideFunc) (entry *TransferLedgerEntry, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transfer tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const lockQuery = `
		SELECT holder_id, location, updated_at
		FROM custody_states WHERE evidence_id = $1
		FOR UPDATE
	`
	current := State{EvidenceID: evidenceID}
	var rawHolderID uuid.UUID
	err = tx.QueryRowContext(ctx, lockQuery, evidenceID.UUID()).
		Scan(&rawHolderID, &current.Location, &current.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock custody state: %w", err)
	}
	current.HolderID = id.UserID(rawHolderID)

	entry, err = decide(current)
	if err != nil {
		return nil, err
	}

	const insertQuery = `
		INSERT INTO transfer_entries
			(id, evidence_id, case_id, initiated_by, from_holder, to_holder,
			 from_location, to_location, reason, transferred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		entry.ID.UUID(), entry.EvidenceID.UUID(), entry.CaseID.UUID(),
		entry.InitiatedBy.UUID(), entry.FromHolder.UUID(), entry.ToHolder.UUID(),
		entry.FromLocation, entry.ToLocation, entry.Reason,
		entry.TransferredAt, entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("insert transfer entry: %w", err)
	}

	const updateQuery = `
		UPDATE custody_states
		SET holder_id = $2, location = $3, updated_at = $4
		WHERE evidence_id = $1
	`
	if _, err = tx.ExecContext(ctx, updateQuery,
		evidenceID.UUID(), entry.ToHolder.UUID(), entry.ToLocation, entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("update custody state: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transfer tx: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) History(ctx context.Context, evidenceID id.EvidenceID) ([]*TransferLedgerEntry, error) {
	const query = `
		SELECT id, evidence_id, case_id, initiated_by, from_holder, to_holder,
		       from_location, to_location, reason, transferred_at, created_at
		FROM transfer_entries
		WHERE evidence_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, evidenceID.UUID())
	if err != nil {
		return nil, fmt.Errorf("query transfer history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) SearchTransfers(ctx context.Context, q SearchQuery) ([]*TransferLedgerEntry, int, error) {
	page, pageSize := q.Page, q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	term := "%" + q.Term + "%"

	const countQuery = `
		SELECT count(*)
		FROM transfer_entries t
		JOIN evidence_items e ON e.id = t.evidence_id
		WHERE $1 = '%%' OR e.code ILIKE $1 OR t.reason ILIKE $1
			OR t.to_location ILIKE $1 OR t.from_location ILIKE $1
	`
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, term).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}

	const query = `
		SELECT t.id, t.evidence_id, t.case_id, t.initiated_by, t.from_holder,
		       t.to_holder, t.from_location, t.to_location, t.reason,
		       t.transferred_at, t.created_at
		FROM transfer_entries t
		JOIN evidence_items e ON e.id = t.evidence_id
		WHERE $1 = '%%' OR e.code ILIKE $1 OR t.reason ILIKE $1
			OR t.to_location ILIKE $1 OR t.from_location ILIKE $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, term, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("search transfers: %w", err)
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func scanEntries(rows *sql.Rows) ([]*TransferLedgerEntry, error) {
	var entries []*TransferLedgerEntry
	for rows.Next() {
		var (
			entry                                    TransferLedgerEntry
			rawID, rawEvidence, rawCase              uuid.UUID
			rawInitiator, rawFromHolder, rawToHolder uuid.UUID
		)
		err := rows.Scan(&rawID, &rawEvidence, &rawCase, &rawInitiator,
			&rawFromHolder, &rawToHolder, &entry.FromLocation, &entry.ToLocation,
			&entry.Reason, &entry.TransferredAt, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transfer entry: %w", err)
		}
		entry.ID = id.TransferID(rawID)
		entry.EvidenceID = id.EvidenceID(rawEvidence)
		entry.CaseID = id.CaseID(rawCase)
		entry.InitiatedBy = id.UserID(rawInitiator)
		entry.FromHolder = id.UserID(rawFromHolder)
		entry.ToHolder = id.UserID(rawToHolder)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer entries: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
