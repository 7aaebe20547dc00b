package loans

import (
	"context"
	"errors"
	"time"

	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanColumns = "id, user_id, amount, duration_days, status, created_at, updated_at"

type Store interface {
	Create(ctx context.Context, loan model.LoanRequest) error
	Get(ctx context.Context, id string) (model.LoanRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.LoanRequest, error)
	ListByStatus(ctx context.Context, status types.LoanStatus, limit int) ([]model.LoanRequest, error)
	UpdateStatus(ctx context.Context, id string, expect, next types.LoanStatus) (bool, error)
}

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create relies on the partial unique index over pending loan requests to
// enforce one open request per user.
func (s *PgStore) Create(ctx context.Context, loan model.LoanRequest) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO loan_requests (id, user_id, amount, duration_days, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		loan.ID, loan.UserID, loan.Amount, loan.DurationDays, string(loan.Status), loan.CreatedAt, loan.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrPendingLoanExists
	}
	return err
}

func (s *PgStore) Get(ctx context.Context, id string) (model.LoanRequest, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+loanColumns+" FROM loan_requests WHERE id = $1", id)
	loan, err := scanLoan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanRequest{}, ErrLoanNotFound
	}
	return loan, err
}

func (s *PgStore) ListByUser(ctx context.Context, userID string) ([]model.LoanRequest, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+loanColumns+" FROM loan_requests WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (s *PgStore) ListByStatus(ctx context.Context, status types.LoanStatus, limit int) ([]model.LoanRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx, "SELECT "+loanColumns+" FROM loan_requests WHERE status = $1 ORDER BY created_at ASC LIMIT $2", string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (s *PgStore) UpdateStatus(ctx context.Context, id string, expect, next types.LoanStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE loan_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		string(next), time.Now().UTC(), id, string(expect))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanLoan(row pgx.Row) (model.LoanRequest, error) {
	var loan model.LoanRequest
	var status string
	err := row.Scan(&loan.ID, &loan.UserID, &loan.Amount, &loan.DurationDays, &status, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return model.LoanRequest{}, err
	}
	loan.Status = types.LoanStatus(status)
	return loan, nil
}

func scanLoans(rows pgx.Rows) ([]model.LoanRequest, error) {
	var out []model.LoanRequest
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loan)
	}
	return out, rows.Err()
}
