// Package audit periodically re-derives balances and checks that the open
// exposure recorded in order rows matches the derived snapshot.
package audit

import (
	"context"
	"time"

	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExposureFromOrders sums the reserved trade amount of every order that is
// still holding funds.
func ExposureFromOrders(orders []model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Open() {
			total = total.Add(o.TradeAmount)
		}
	}
	return total
}

// Finding describes one user whose derived snapshot looks wrong.
type Finding struct {
	UserID           string
	DerivedExposure  decimal.Decimal
	OrderExposure    decimal.Decimal
	SpendableBalance decimal.Decimal
	Mismatch         bool
	NegativeBalance  bool
}

// Inspect compares a derived snapshot against the raw order rows.
func Inspect(userID string, snap balance.Snapshot, orders []model.Order) Finding {
	orderExposure := ExposureFromOrders(orders)
	return Finding{
		UserID:           userID,
		DerivedExposure:  snap.OpenExposure,
		OrderExposure:    orderExposure,
		SpendableBalance: snap.SpendableBalance,
		Mismatch:         !snap.OpenExposure.Equal(orderExposure),
		NegativeBalance:  snap.SpendableBalance.IsNegative(),
	}
}

func (f Finding) Clean() bool {
	return !f.Mismatch && !f.NegativeBalance
}

// Job walks every user holding open orders.
type Job struct {
	pool    *pgxpool.Pool
	balance *balance.Service
	facts   balance.FactsReader
	log     *zap.Logger
	cron    *cron.Cron
}

func NewJob(pool *pgxpool.Pool, balanceSvc *balance.Service, facts balance.FactsReader, log *zap.Logger) *Job {
	return &Job{
		pool:    pool,
		balance: balanceSvc,
		facts:   facts,
		log:     log,
		cron:    cron.New(),
	}
}

// Start registers the reconciliation run on the given cron schedule.
func (j *Job) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			j.log.Error("audit run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *Job) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Run reconciles every user with at least one order still holding funds.
func (j *Job) Run(ctx context.Context) error {
	rows, err := j.pool.Query(ctx,
		"SELECT DISTINCT user_id FROM orders WHERE status IN ('pending', 'open', 'pending_sell')")
	if err != nil {
		return err
	}
	defer rows.Close()
	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	checked := 0
	flagged := 0
	for _, userID := range userIDs {
		snap, err := j.balance.GetBalance(ctx, userID)
		if err != nil {
			j.log.Error("audit: derive balance", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		orders, err := j.facts.OrdersByUser(ctx, userID)
		if err != nil {
			j.log.Error("audit: load orders", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		checked++
		finding := Inspect(userID, snap, orders)
		if finding.Clean() {
			continue
		}
		flagged++
		j.log.Warn("audit finding",
			zap.String("user_id", finding.UserID),
			zap.String("derived_exposure", finding.DerivedExposure.String()),
			zap.String("order_exposure", finding.OrderExposure.String()),
			zap.String("spendable", finding.SpendableBalance.String()),
			zap.Bool("exposure_mismatch", finding.Mismatch),
			zap.Bool("negative_balance", finding.NegativeBalance))
	}
	j.log.Info("audit run complete", zap.Int("users_checked", checked), zap.Int("users_flagged", flagged))
	return nil
}
