package types

type OrderDirection string

type OrderStatus string

type TransactionType string

type TransactionStatus string

type LoanStatus string

type Role string

const (
	OrderDirectionLong  OrderDirection = "long"
	OrderDirectionShort OrderDirection = "short"
)

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusOpen        OrderStatus = "open"
	OrderStatusPendingSell OrderStatus = "pending_sell"
	OrderStatusClosed      OrderStatus = "closed"
	OrderStatusRejected    OrderStatus = "rejected"
)

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusRejected LoanStatus = "rejected"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Terminal reports whether an order in this status can never move again.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusClosed || s == OrderStatusRejected
}
