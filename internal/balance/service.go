package balance

import (
	"context"

	"lv-tradedesk/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// FactsReader fetches the ledger facts for one user. The three queries are
// independent and read-committed visibility is enough (no read here feeds a
// write without the approval gateway's own re-check).
type FactsReader interface {
	TransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error)
	LoansByUser(ctx context.Context, userID string) ([]model.LoanRequest, error)
	OrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
}

type Service struct {
	facts FactsReader
}

func NewService(facts FactsReader) *Service {
	return &Service{facts: facts}
}

// GetBalance fans out the fact reads and derives the snapshot.
func (s *Service) GetBalance(ctx context.Context, userID string) (Snapshot, error) {
	var facts Facts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.facts.TransactionsByUser(gctx, userID)
		if err != nil {
			return err
		}
		facts.Transactions = txs
		return nil
	})
	g.Go(func() error {
		loans, err := s.facts.LoansByUser(gctx, userID)
		if err != nil {
			return err
		}
		facts.Loans = loans
		return nil
	})
	g.Go(func() error {
		orders, err := s.facts.OrdersByUser(gctx, userID)
		if err != nil {
			return err
		}
		facts.Orders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return Derive(facts), nil
}

type PgFactsReader struct {
	pool *pgxpool.Pool
}

func NewPgFactsReader(pool *pgxpool.Pool) *PgFactsReader {
	return &PgFactsReader{pool: pool}
}

func (r *PgFactsReader) TransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, amount, status, verified, reference, created_at, updated_at
		FROM transactions
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Verified, &t.Reference, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgFactsReader) LoansByUser(ctx context.Context, userID string) ([]model.LoanRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, amount, duration_days, status, created_at, updated_at
		FROM loan_requests
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LoanRequest
	for rows.Next() {
		var l model.LoanRequest
		if err := rows.Scan(&l.ID, &l.UserID, &l.Amount, &l.DurationDays, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PgFactsReader) OrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, symbol, direction, status, quantity, buy_price, sell_price,
		       trade_amount, profit_loss, trade_date, created_at, updated_at
		FROM orders
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Symbol, &o.Direction, &o.Status, &o.Quantity, &o.BuyPrice, &o.SellPrice, &o.TradeAmount, &o.ProfitLoss, &o.TradeDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
