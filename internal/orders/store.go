package orders

import (
	"context"
	"errors"
	"time"

	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store persists orders. Every mutation is a conditional update keyed on the
// expected pre-state; a false return means the order was not in that state
// anymore (another mutation won the race).
type Store interface {
	Create(ctx context.Context, o model.Order) error
	Get(ctx context.Context, orderID string) (model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListByStatus(ctx context.Context, status types.OrderStatus, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, expect, next types.OrderStatus) (bool, error)
	UpdateBuyPrice(ctx context.Context, orderID string, price decimal.Decimal) (bool, error)
	Close(ctx context.Context, orderID string, sellPrice, profitLoss decimal.Decimal) (bool, error)
}

const orderColumns = `id, user_id, symbol, direction, status, quantity, buy_price, sell_price, trade_amount, profit_loss, trade_date, created_at, updated_at`

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, o model.Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, user_id, symbol, direction, status, quantity, buy_price, sell_price, trade_amount, profit_loss, trade_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, o.ID, o.UserID, o.Symbol, string(o.Direction), string(o.Status), o.Quantity, o.BuyPrice, o.SellPrice, o.TradeAmount, o.ProfitLoss, o.TradeDate, o.CreatedAt, o.UpdatedAt)
	return err
}

func (s *PgStore) Get(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID).Scan(
		&o.ID, &o.UserID, &o.Symbol, &o.Direction, &o.Status, &o.Quantity, &o.BuyPrice, &o.SellPrice, &o.TradeAmount, &o.ProfitLoss, &o.TradeDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	return o, err
}

func (s *PgStore) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func (s *PgStore) ListByStatus(ctx context.Context, status types.OrderStatus, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at ASC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

// UpdateStatus is the optimistic at-most-once guard: the WHERE clause pins the
// expected pre-state, so of two racing admins exactly one sees a row updated.
func (s *PgStore) UpdateStatus(ctx context.Context, orderID string, expect, next types.OrderStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(next), time.Now().UTC(), orderID, string(expect))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) UpdateBuyPrice(ctx context.Context, orderID string, price decimal.Decimal) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET buy_price = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'
	`, price, time.Now().UTC(), orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Close sets sell_price and profit_loss together, exactly once, on the
// pending_sell -> closed transition.
func (s *PgStore) Close(ctx context.Context, orderID string, sellPrice, profitLoss decimal.Decimal) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET status = 'closed', sell_price = $1, profit_loss = $2, updated_at = $3
		WHERE id = $4 AND status = 'pending_sell'
	`, sellPrice, profitLoss, time.Now().UTC(), orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanOrders(rows pgx.Rows) ([]model.Order, error) {
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
