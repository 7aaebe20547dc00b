package model

import (
	"time"

	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Symbol      string               `json:"symbol"`
	Direction   types.OrderDirection `json:"direction"`
	Status      types.OrderStatus    `json:"status"`
	Quantity    decimal.Decimal      `json:"quantity"`
	BuyPrice    decimal.Decimal      `json:"buy_price"`
	SellPrice   *decimal.Decimal     `json:"sell_price"`
	TradeAmount decimal.Decimal      `json:"trade_amount"`
	ProfitLoss  *decimal.Decimal     `json:"profit_loss"`
	TradeDate   time.Time            `json:"trade_date"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Open reports whether the order still counts toward balance exposure.
func (o Order) Open() bool {
	switch o.Status {
	case types.OrderStatusPending, types.OrderStatusOpen, types.OrderStatusPendingSell:
		return true
	}
	return false
}
