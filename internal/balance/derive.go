package balance

import (
	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

// Facts is everything the derivation needs for one user, read as of one moment.
type Facts struct {
	Transactions []model.Transaction
	Loans        []model.LoanRequest
	Orders       []model.Order
}

// Snapshot is derived on every read and never persisted, so it cannot drift
// from the underlying facts.
type Snapshot struct {
	BaseBalance        decimal.Decimal `json:"base_balance"`
	ApprovedLoanAmount decimal.Decimal `json:"approved_loan_amount"`
	OpenExposure       decimal.Decimal `json:"open_exposure"`
	TotalProfitLoss    decimal.Decimal `json:"total_profit_loss"`
	SpendableBalance   decimal.Decimal `json:"spendable_balance"`
}

// Derive is the single copy of the balance formula. Every reader of a user's
// spendable balance goes through here; duplicating this calculation elsewhere
// is a correctness bug, not a style issue.
//
//	base      = completed+verified deposits − completed withdrawals
//	loans     = approved loan amounts
//	exposure  = trade_amount of orders in {pending, open, pending_sell}
//	pl        = profit_loss of closed orders (+ open orders, zero until
//	            mark-to-market exists)
//	spendable = base + loans − exposure + pl
func Derive(f Facts) Snapshot {
	var base decimal.Decimal
	for _, t := range f.Transactions {
		switch t.Type {
		case types.TransactionTypeDeposit:
			if t.Status == types.TransactionStatusCompleted && t.Verified {
				base = base.Add(t.Amount)
			}
		case types.TransactionTypeWithdraw:
			if t.Status == types.TransactionStatusCompleted {
				base = base.Sub(t.Amount)
			}
		}
	}

	var loans decimal.Decimal
	for _, l := range f.Loans {
		if l.Status == types.LoanStatusApproved {
			loans = loans.Add(l.Amount)
		}
	}

	var exposure decimal.Decimal
	var closedPL decimal.Decimal
	var openPL decimal.Decimal
	for _, o := range f.Orders {
		if o.Open() {
			exposure = exposure.Add(o.TradeAmount)
		}
		if o.ProfitLoss == nil {
			continue
		}
		switch o.Status {
		case types.OrderStatusClosed:
			closedPL = closedPL.Add(*o.ProfitLoss)
		case types.OrderStatusOpen:
			openPL = openPL.Add(*o.ProfitLoss)
		}
	}

	totalPL := closedPL.Add(openPL)
	return Snapshot{
		BaseBalance:        base,
		ApprovedLoanAmount: loans,
		OpenExposure:       exposure,
		TotalProfitLoss:    totalPL,
		SpendableBalance:   base.Add(loans).Sub(exposure).Add(totalPL),
	}
}
