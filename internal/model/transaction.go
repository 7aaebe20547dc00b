package model

import (
	"time"

	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	Type      types.TransactionType   `json:"type"`
	Amount    decimal.Decimal         `json:"amount"`
	Status    types.TransactionStatus `json:"status"`
	Verified  bool                    `json:"verified"`
	Reference string                  `json:"reference,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type LoanRequest struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Amount       decimal.Decimal  `json:"amount"`
	DurationDays int              `json:"duration_days"`
	Status       types.LoanStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        types.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
}
