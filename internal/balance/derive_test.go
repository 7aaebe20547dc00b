package balance_test

import (
	"testing"

	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDerive_EmptyFacts(t *testing.T) {
	snap := balance.Derive(balance.Facts{})
	if !snap.SpendableBalance.Equal(decimal.Zero) {
		t.Errorf("spendable = %s, want 0", snap.SpendableBalance)
	}
	if !snap.BaseBalance.Equal(decimal.Zero) || !snap.OpenExposure.Equal(decimal.Zero) {
		t.Errorf("empty facts should derive all-zero snapshot, got %+v", snap)
	}
}

func TestDerive_FullFormula(t *testing.T) {
	pl := dec(0)
	facts := balance.Facts{
		Transactions: []model.Transaction{
			{Type: types.TransactionTypeDeposit, Amount: dec(10000), Status: types.TransactionStatusCompleted, Verified: true},
			{Type: types.TransactionTypeWithdraw, Amount: dec(2000), Status: types.TransactionStatusCompleted},
		},
		Loans: []model.LoanRequest{
			{Amount: dec(5000), Status: types.LoanStatusApproved},
		},
		Orders: []model.Order{
			{Status: types.OrderStatusOpen, TradeAmount: dec(3000), ProfitLoss: &pl},
		},
	}
	snap := balance.Derive(facts)

	if !snap.BaseBalance.Equal(dec(8000)) {
		t.Errorf("base = %s, want 8000", snap.BaseBalance)
	}
	if !snap.ApprovedLoanAmount.Equal(dec(5000)) {
		t.Errorf("loans = %s, want 5000", snap.ApprovedLoanAmount)
	}
	if !snap.OpenExposure.Equal(dec(3000)) {
		t.Errorf("exposure = %s, want 3000", snap.OpenExposure)
	}
	if !snap.TotalProfitLoss.Equal(dec(0)) {
		t.Errorf("pl = %s, want 0", snap.TotalProfitLoss)
	}
	// 8000 + 5000 - 3000 + 0
	if !snap.SpendableBalance.Equal(dec(10000)) {
		t.Errorf("spendable = %s, want 10000", snap.SpendableBalance)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	pl := dec(150)
	facts := balance.Facts{
		Transactions: []model.Transaction{
			{Type: types.TransactionTypeDeposit, Amount: dec(700), Status: types.TransactionStatusCompleted, Verified: true},
		},
		Orders: []model.Order{
			{Status: types.OrderStatusClosed, TradeAmount: dec(500), ProfitLoss: &pl},
		},
	}
	first := balance.Derive(facts)
	second := balance.Derive(facts)
	if !first.SpendableBalance.Equal(second.SpendableBalance) {
		t.Errorf("same facts derived different balances: %s vs %s", first.SpendableBalance, second.SpendableBalance)
	}
}

func TestDerive_OnlySettledFactsCount(t *testing.T) {
	facts := balance.Facts{
		Transactions: []model.Transaction{
			// Completed but unverified deposit: no credit.
			{Type: types.TransactionTypeDeposit, Amount: dec(1000), Status: types.TransactionStatusCompleted, Verified: false},
			// Pending deposit: no credit even if verified.
			{Type: types.TransactionTypeDeposit, Amount: dec(1000), Status: types.TransactionStatusPending, Verified: true},
			// Failed withdrawal: no debit.
			{Type: types.TransactionTypeWithdraw, Amount: dec(400), Status: types.TransactionStatusFailed},
			// Pending withdrawal: no debit until completed.
			{Type: types.TransactionTypeWithdraw, Amount: dec(300), Status: types.TransactionStatusPending},
		},
		Loans: []model.LoanRequest{
			{Amount: dec(900), Status: types.LoanStatusPending},
			{Amount: dec(900), Status: types.LoanStatusRejected},
		},
	}
	snap := balance.Derive(facts)
	if !snap.SpendableBalance.Equal(decimal.Zero) {
		t.Errorf("spendable = %s, want 0", snap.SpendableBalance)
	}
}

func TestDerive_ExposureStates(t *testing.T) {
	facts := balance.Facts{
		Orders: []model.Order{
			{Status: types.OrderStatusPending, TradeAmount: dec(100)},
			{Status: types.OrderStatusOpen, TradeAmount: dec(200)},
			{Status: types.OrderStatusPendingSell, TradeAmount: dec(300)},
			{Status: types.OrderStatusClosed, TradeAmount: dec(400)},
			{Status: types.OrderStatusRejected, TradeAmount: dec(500)},
		},
	}
	snap := balance.Derive(facts)
	if !snap.OpenExposure.Equal(dec(600)) {
		t.Errorf("exposure = %s, want 600 (pending+open+pending_sell only)", snap.OpenExposure)
	}
}

func TestDerive_ClosedAndOpenProfitLoss(t *testing.T) {
	win := dec(250)
	loss := dec(-100)
	openPL := dec(40)
	facts := balance.Facts{
		Orders: []model.Order{
			{Status: types.OrderStatusClosed, ProfitLoss: &win},
			{Status: types.OrderStatusClosed, ProfitLoss: &loss},
			{Status: types.OrderStatusOpen, TradeAmount: dec(100), ProfitLoss: &openPL},
		},
	}
	snap := balance.Derive(facts)
	if !snap.TotalProfitLoss.Equal(dec(190)) {
		t.Errorf("pl = %s, want 190", snap.TotalProfitLoss)
	}
}

func TestDerive_NegativeBaseIsPossible(t *testing.T) {
	// A completed withdrawal with no verified deposit drives the base negative;
	// derivation reports the facts as they are.
	facts := balance.Facts{
		Transactions: []model.Transaction{
			{Type: types.TransactionTypeWithdraw, Amount: dec(500), Status: types.TransactionStatusCompleted},
		},
	}
	snap := balance.Derive(facts)
	if !snap.SpendableBalance.Equal(dec(-500)) {
		t.Errorf("spendable = %s, want -500", snap.SpendableBalance)
	}
}
