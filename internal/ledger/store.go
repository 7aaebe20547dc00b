package ledger

import (
	"context"
	"errors"
	"time"

	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const txColumns = "id, user_id, type, amount, status, verified, reference, created_at, updated_at"

// Store persists deposit and withdrawal requests. Status moves are
// conditional updates so a request is settled at most once.
type Store interface {
	Create(ctx context.Context, tx model.Transaction) error
	Get(ctx context.Context, id string) (model.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]model.Transaction, error)
	ListByStatus(ctx context.Context, status types.TransactionStatus, limit int) ([]model.Transaction, error)
	UpdateStatus(ctx context.Context, id string, expect, next types.TransactionStatus) (bool, error)
	MarkVerified(ctx context.Context, id string) (bool, error)
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, tx model.Transaction) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO transactions (id, user_id, type, amount, status, verified, reference, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		tx.ID, tx.UserID, string(tx.Type), tx.Amount, string(tx.Status), tx.Verified, tx.Reference, tx.CreatedAt, tx.UpdatedAt)
	return err
}

func (s *PgStore) Get(ctx context.Context, id string) (model.Transaction, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = $1", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transaction{}, ErrTransactionNotFound
	}
	return tx, err
}

func (s *PgStore) ListByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+txColumns+" FROM transactions WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *PgStore) ListByStatus(ctx context.Context, status types.TransactionStatus, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx, "SELECT "+txColumns+" FROM transactions WHERE status = $1 ORDER BY created_at ASC LIMIT $2", string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *PgStore) UpdateStatus(ctx context.Context, id string, expect, next types.TransactionStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		string(next), time.Now().UTC(), id, string(expect))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) MarkVerified(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE transactions SET verified = true, updated_at = $1 WHERE id = $2 AND verified = false",
		time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var tx model.Transaction
	var txType, status string
	err := row.Scan(&tx.ID, &tx.UserID, &txType, &tx.Amount, &status, &tx.Verified, &tx.Reference, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	tx.Type = types.TransactionType(txType)
	tx.Status = types.TransactionStatus(status)
	return tx, nil
}

func scanTransactions(rows pgx.Rows) ([]model.Transaction, error) {
	var out []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
