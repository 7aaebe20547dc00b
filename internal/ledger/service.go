package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadySettled      = errors.New("transaction already settled")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type Service struct {
	store   Store
	balance *balance.Service
	log     *zap.Logger
}

func NewService(store Store, balance *balance.Service, log *zap.Logger) *Service {
	return &Service{store: store, balance: balance, log: log}
}

// Deposit records a pending deposit. The amount does not reach the
// spendable balance until an admin completes and verifies it.
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (model.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return model.Transaction{}, &ValidationError{Msg: "amount must be positive"}
	}
	tx := newTransaction(userID, types.TransactionTypeDeposit, amount, reference)
	if err := s.store.Create(ctx, tx); err != nil {
		return model.Transaction{}, fmt.Errorf("create deposit: %w", err)
	}
	s.log.Info("deposit requested", zap.String("tx_id", tx.ID), zap.String("user_id", userID), zap.String("amount", amount.String()))
	return tx, nil
}

// Withdraw records a pending withdrawal after checking the user can cover
// it out of spendable balance.
func (s *Service) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, reference string) (model.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return model.Transaction{}, &ValidationError{Msg: "amount must be positive"}
	}
	snap, err := s.balance.GetBalance(ctx, userID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("derive balance: %w", err)
	}
	if snap.SpendableBalance.LessThan(amount) {
		return model.Transaction{}, ErrInsufficientBalance
	}
	tx := newTransaction(userID, types.TransactionTypeWithdraw, amount, reference)
	if err := s.store.Create(ctx, tx); err != nil {
		return model.Transaction{}, fmt.Errorf("create withdrawal: %w", err)
	}
	s.log.Info("withdrawal requested", zap.String("tx_id", tx.ID), zap.String("user_id", userID), zap.String("amount", amount.String()))
	return tx, nil
}

// Complete settles a pending transaction. The conditional update makes a
// second Complete on the same transaction fail with ErrAlreadySettled.
func (s *Service) Complete(ctx context.Context, id string) (model.Transaction, error) {
	return s.settle(ctx, id, types.TransactionStatusCompleted)
}

// Fail marks a pending transaction as failed. Failed transactions never
// contribute to the balance.
func (s *Service) Fail(ctx context.Context, id string) (model.Transaction, error) {
	return s.settle(ctx, id, types.TransactionStatusFailed)
}

func (s *Service) settle(ctx context.Context, id string, next types.TransactionStatus) (model.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.Status != types.TransactionStatusPending {
		return model.Transaction{}, ErrAlreadySettled
	}
	ok, err := s.store.UpdateStatus(ctx, id, types.TransactionStatusPending, next)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("settle transaction: %w", err)
	}
	if !ok {
		return model.Transaction{}, ErrAlreadySettled
	}
	s.log.Info("transaction settled",
		zap.String("tx_id", id),
		zap.String("type", string(tx.Type)),
		zap.String("status", string(next)))
	return s.store.Get(ctx, id)
}

// Verify confirms a deposit's provenance. Only verified completed deposits
// count toward the base balance.
func (s *Service) Verify(ctx context.Context, id string) (model.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.Type != types.TransactionTypeDeposit {
		return model.Transaction{}, &ValidationError{Msg: "only deposits can be verified"}
	}
	ok, err := s.store.MarkVerified(ctx, id)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("verify transaction: %w", err)
	}
	if !ok {
		return model.Transaction{}, ErrAlreadySettled
	}
	s.log.Info("deposit verified", zap.String("tx_id", id), zap.String("user_id", tx.UserID))
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListByStatus(ctx context.Context, status types.TransactionStatus, limit int) ([]model.Transaction, error) {
	switch status {
	case types.TransactionStatusPending, types.TransactionStatusCompleted, types.TransactionStatusFailed:
	default:
		return nil, &ValidationError{Msg: "unknown transaction status"}
	}
	return s.store.ListByStatus(ctx, status, limit)
}

func newTransaction(userID string, txType types.TransactionType, amount decimal.Decimal, reference string) model.Transaction {
	now := time.Now().UTC()
	return model.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      txType,
		Amount:    amount,
		Status:    types.TransactionStatusPending,
		Reference: reference,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
