package orders_test

import (
	"errors"
	"testing"

	"lv-tradedesk/internal/orders"
	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

func TestNextStatus_Table(t *testing.T) {
	cases := []struct {
		from types.OrderStatus
		ev   orders.Event
		want types.OrderStatus
	}{
		{types.OrderStatusPending, orders.EventApproveBuy, types.OrderStatusOpen},
		{types.OrderStatusPending, orders.EventRejectBuy, types.OrderStatusRejected},
		{types.OrderStatusPending, orders.EventEditBuyPrice, types.OrderStatusPending},
		{types.OrderStatusOpen, orders.EventRequestSell, types.OrderStatusPendingSell},
		{types.OrderStatusPendingSell, orders.EventApproveSell, types.OrderStatusClosed},
		{types.OrderStatusPendingSell, orders.EventRejectSell, types.OrderStatusOpen},
	}
	for _, c := range cases {
		got, err := orders.NextStatus(c.from, c.ev)
		if err != nil {
			t.Errorf("NextStatus(%s, %s): unexpected error %v", c.from, c.ev, err)
			continue
		}
		if got != c.want {
			t.Errorf("NextStatus(%s, %s) = %s, want %s", c.from, c.ev, got, c.want)
		}
	}
}

func TestNextStatus_TerminalStatesRejectEverything(t *testing.T) {
	terminal := []types.OrderStatus{types.OrderStatusClosed, types.OrderStatusRejected}
	events := []orders.Event{
		orders.EventApproveBuy, orders.EventRejectBuy, orders.EventEditBuyPrice,
		orders.EventRequestSell, orders.EventApproveSell, orders.EventRejectSell,
	}
	for _, from := range terminal {
		for _, ev := range events {
			_, err := orders.NextStatus(from, ev)
			var tErr *orders.InvalidTransitionError
			if !errors.As(err, &tErr) {
				t.Errorf("NextStatus(%s, %s): want InvalidTransitionError, got %v", from, ev, err)
			}
		}
	}
}

func TestNextStatus_SellEventsNeedTheRightState(t *testing.T) {
	// A buy approval cannot touch an order already open, and a sell approval
	// cannot touch an order that never asked to sell.
	if _, err := orders.NextStatus(types.OrderStatusOpen, orders.EventApproveBuy); err == nil {
		t.Error("approve_buy on open order should fail")
	}
	if _, err := orders.NextStatus(types.OrderStatusOpen, orders.EventApproveSell); err == nil {
		t.Error("approve_sell on open order should fail")
	}
	if _, err := orders.NextStatus(types.OrderStatusPending, orders.EventRequestSell); err == nil {
		t.Error("request_sell on pending order should fail")
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !types.OrderStatusClosed.Terminal() {
		t.Error("closed should be terminal")
	}
	if !types.OrderStatusRejected.Terminal() {
		t.Error("rejected should be terminal")
	}
	for _, s := range []types.OrderStatus{types.OrderStatusPending, types.OrderStatusOpen, types.OrderStatusPendingSell} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTradeAmount(t *testing.T) {
	got := orders.TradeAmount(decimal.NewFromInt(10), decimal.NewFromInt(100))
	if !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("TradeAmount(10, 100) = %s, want 1000", got)
	}
}

func TestProfitLoss_SameFormulaBothDirections(t *testing.T) {
	buy := decimal.NewFromInt(100)
	sell := decimal.NewFromInt(120)
	qty := decimal.NewFromInt(10)
	want := decimal.NewFromInt(200)

	long := orders.ProfitLoss(types.OrderDirectionLong, buy, sell, qty)
	if !long.Equal(want) {
		t.Errorf("long P&L = %s, want %s", long, want)
	}
	short := orders.ProfitLoss(types.OrderDirectionShort, buy, sell, qty)
	if !short.Equal(want) {
		t.Errorf("short P&L = %s, want %s", short, want)
	}
}

func TestProfitLoss_Negative(t *testing.T) {
	got := orders.ProfitLoss(types.OrderDirectionLong, decimal.NewFromInt(100), decimal.NewFromInt(90), decimal.NewFromInt(5))
	if !got.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("P&L = %s, want -50", got)
	}
}
