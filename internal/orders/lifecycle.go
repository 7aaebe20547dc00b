package orders

import (
	"fmt"

	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

// Event is a lifecycle trigger applied to an order.
type Event string

const (
	EventApproveBuy   Event = "approve_buy"
	EventRejectBuy    Event = "reject_buy"
	EventEditBuyPrice Event = "edit_buy_price"
	EventRequestSell  Event = "request_sell"
	EventApproveSell  Event = "approve_sell"
	EventRejectSell   Event = "reject_sell"
)

// TradeAmountFollowsPriceEdits pins the capital-reservation policy: trade_amount
// is fixed when the order is created. An admin edit of buy_price while the order
// is still pending does not move the reservation.
const TradeAmountFollowsPriceEdits = false

var transitions = map[types.OrderStatus]map[Event]types.OrderStatus{
	types.OrderStatusPending: {
		EventApproveBuy:   types.OrderStatusOpen,
		EventRejectBuy:    types.OrderStatusRejected,
		EventEditBuyPrice: types.OrderStatusPending,
	},
	types.OrderStatusOpen: {
		EventRequestSell: types.OrderStatusPendingSell,
	},
	types.OrderStatusPendingSell: {
		EventApproveSell: types.OrderStatusClosed,
		EventRejectSell:  types.OrderStatusOpen,
	},
}

type InvalidTransitionError struct {
	From  types.OrderStatus
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s an order in status %s", e.Event, e.From)
}

// NextStatus resolves the target status for an event, or fails with
// InvalidTransitionError naming the current status and the attempted event.
func NextStatus(from types.OrderStatus, ev Event) (types.OrderStatus, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return "", &InvalidTransitionError{From: from, Event: ev}
}

// TradeAmount is the capital reserved for an order, fixed at creation.
func TradeAmount(quantity, buyPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(buyPrice)
}

// ProfitLoss computes realized P&L on close. The price model quotes every
// symbol so that (sell − buy) × qty holds for both directions; no sign
// inversion for shorts.
func ProfitLoss(direction types.OrderDirection, buyPrice, sellPrice, quantity decimal.Decimal) decimal.Decimal {
	_ = direction
	return sellPrice.Sub(buyPrice).Mul(quantity)
}
