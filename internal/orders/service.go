package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/events"
	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the only mutation path for orders. User-facing operations
// (CreateOrder, RequestSell) verify ownership; everything else is admin-only
// and enforced at the router.
type Service struct {
	store   Store
	balance *balance.Service
	bus     *events.Bus
	log     *zap.Logger
}

func NewService(store Store, balanceSvc *balance.Service, bus *events.Bus, log *zap.Logger) *Service {
	return &Service{store: store, balance: balanceSvc, bus: bus, log: log}
}

type CreateOrderRequest struct {
	UserID    string
	Symbol    string
	Direction types.OrderDirection
	Quantity  decimal.Decimal
	BuyPrice  decimal.Decimal
}

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (model.Order, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return model.Order{}, validationErrorf("symbol is required")
	}
	if req.Direction != types.OrderDirectionLong && req.Direction != types.OrderDirectionShort {
		return model.Order{}, validationErrorf("invalid direction")
	}
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return model.Order{}, validationErrorf("quantity must be positive")
	}
	if !req.BuyPrice.GreaterThan(decimal.Zero) {
		return model.Order{}, validationErrorf("buy price must be positive")
	}

	tradeAmount := TradeAmount(req.Quantity, req.BuyPrice)
	snap, err := s.balance.GetBalance(ctx, req.UserID)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to derive balance: %w", err)
	}
	if snap.SpendableBalance.LessThan(tradeAmount) {
		return model.Order{}, ErrInsufficientBalance
	}

	now := time.Now().UTC()
	o := model.Order{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Symbol:      symbol,
		Direction:   req.Direction,
		Status:      types.OrderStatusPending,
		Quantity:    req.Quantity,
		BuyPrice:    req.BuyPrice,
		TradeAmount: tradeAmount,
		TradeDate:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return model.Order{}, err
	}
	s.bus.PublishOrderTransition(o.ID, o.UserID, "", string(o.Status))
	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.String("trade_amount", tradeAmount.String()),
	)
	return o, nil
}

// RequestSell moves an open order the caller owns into pending_sell.
func (s *Service) RequestSell(ctx context.Context, orderID, userID string) (model.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.UserID != userID {
		return model.Order{}, ErrForbidden
	}
	return s.transition(ctx, o, EventRequestSell)
}

// ApproveBuy re-reads the order, re-derives the owner's spendable balance and
// flips pending -> open. Exactly one of two concurrent approvals succeeds.
func (s *Service) ApproveBuy(ctx context.Context, orderID string) (model.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != types.OrderStatusPending {
		return model.Order{}, ErrAlreadyProcessed
	}

	snap, err := s.balance.GetBalance(ctx, o.UserID)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to derive balance: %w", err)
	}
	// The pending order already counts toward open exposure, so its own
	// reservation is added back before asking whether the user can cover it.
	available := snap.SpendableBalance.Add(o.TradeAmount)
	if available.LessThan(o.TradeAmount) {
		s.log.Warn("buy approval blocked by balance",
			zap.String("order_id", o.ID),
			zap.String("user_id", o.UserID),
			zap.String("spendable", snap.SpendableBalance.String()),
			zap.String("trade_amount", o.TradeAmount.String()),
		)
		return model.Order{}, ErrInsufficientBalance
	}
	return s.transition(ctx, o, EventApproveBuy)
}

func (s *Service) RejectBuy(ctx context.Context, orderID string) (model.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != types.OrderStatusPending {
		return model.Order{}, ErrAlreadyProcessed
	}
	return s.transition(ctx, o, EventRejectBuy)
}

// EditBuyPrice adjusts the entry price of a still-pending order. The trade
// amount reservation is deliberately left untouched; see
// TradeAmountFollowsPriceEdits.
func (s *Service) EditBuyPrice(ctx context.Context, orderID string, newPrice decimal.Decimal) (model.Order, error) {
	if !newPrice.GreaterThan(decimal.Zero) {
		return model.Order{}, validationErrorf("buy price must be positive")
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if _, err := NextStatus(o.Status, EventEditBuyPrice); err != nil {
		return model.Order{}, err
	}
	ok, err := s.store.UpdateBuyPrice(ctx, orderID, newPrice)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		return model.Order{}, ErrAlreadyProcessed
	}
	s.log.Info("buy price edited",
		zap.String("order_id", orderID),
		zap.String("old_price", o.BuyPrice.String()),
		zap.String("new_price", newPrice.String()),
	)
	return s.store.Get(ctx, orderID)
}

// ApproveSell closes a pending_sell order at the supplied price, setting
// sell_price and profit_loss together in one conditional write.
func (s *Service) ApproveSell(ctx context.Context, orderID string, sellPrice decimal.Decimal) (model.Order, error) {
	if !sellPrice.GreaterThan(decimal.Zero) {
		return model.Order{}, validationErrorf("sell price must be positive")
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != types.OrderStatusPendingSell {
		return model.Order{}, ErrAlreadyProcessed
	}
	// buy_price is frozen once the order left pending, so computing P&L from
	// the re-read row is race-free.
	pl := ProfitLoss(o.Direction, o.BuyPrice, sellPrice, o.Quantity)
	ok, err := s.store.Close(ctx, orderID, sellPrice, pl)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		return model.Order{}, ErrAlreadyProcessed
	}
	s.bus.PublishOrderTransition(o.ID, o.UserID, string(types.OrderStatusPendingSell), string(types.OrderStatusClosed))
	s.log.Info("sell approved",
		zap.String("order_id", orderID),
		zap.String("sell_price", sellPrice.String()),
		zap.String("profit_loss", pl.String()),
	)
	return s.store.Get(ctx, orderID)
}

func (s *Service) RejectSell(ctx context.Context, orderID string) (model.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.Status != types.OrderStatusPendingSell {
		return model.Order{}, ErrAlreadyProcessed
	}
	return s.transition(ctx, o, EventRejectSell)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListByStatus(ctx context.Context, status types.OrderStatus, limit int) ([]model.Order, error) {
	switch status {
	case types.OrderStatusPending, types.OrderStatusOpen, types.OrderStatusPendingSell,
		types.OrderStatusClosed, types.OrderStatusRejected:
	default:
		return nil, validationErrorf("invalid status filter")
	}
	return s.store.ListByStatus(ctx, status, limit)
}

// transition resolves the event against the state table and applies it with the
// optimistic pre-state check. Used for user-driven events, where an illegal
// event surfaces as InvalidTransition.
func (s *Service) transition(ctx context.Context, o model.Order, ev Event) (model.Order, error) {
	next, err := NextStatus(o.Status, ev)
	if err != nil {
		return model.Order{}, err
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, next)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		return model.Order{}, ErrAlreadyProcessed
	}
	s.bus.PublishOrderTransition(o.ID, o.UserID, string(o.Status), string(next))
	s.log.Info("order transitioned",
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next)),
	)
	return s.store.Get(ctx, o.ID)
}
