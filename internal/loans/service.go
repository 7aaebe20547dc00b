package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrLoanNotFound      = errors.New("loan request not found")
	ErrPendingLoanExists = errors.New("a pending loan request already exists")
	ErrAlreadyReviewed   = errors.New("loan request already reviewed")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

const maxLoanDurationDays = 365

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Request(ctx context.Context, userID string, amount decimal.Decimal, durationDays int) (model.LoanRequest, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return model.LoanRequest{}, &ValidationError{Msg: "amount must be positive"}
	}
	if durationDays <= 0 || durationDays > maxLoanDurationDays {
		return model.LoanRequest{}, &ValidationError{Msg: fmt.Sprintf("duration must be between 1 and %d days", maxLoanDurationDays)}
	}
	now := time.Now().UTC()
	loan := model.LoanRequest{
		ID:           uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		DurationDays: durationDays,
		Status:       types.LoanStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, loan); err != nil {
		if errors.Is(err, ErrPendingLoanExists) {
			return model.LoanRequest{}, err
		}
		return model.LoanRequest{}, fmt.Errorf("create loan request: %w", err)
	}
	s.log.Info("loan requested", zap.String("loan_id", loan.ID), zap.String("user_id", userID), zap.String("amount", amount.String()))
	return loan, nil
}

// Approve moves a pending request to approved. Approved loans feed the
// balance derivation immediately.
func (s *Service) Approve(ctx context.Context, id string) (model.LoanRequest, error) {
	return s.review(ctx, id, types.LoanStatusApproved)
}

func (s *Service) Reject(ctx context.Context, id string) (model.LoanRequest, error) {
	return s.review(ctx, id, types.LoanStatusRejected)
}

func (s *Service) review(ctx context.Context, id string, next types.LoanStatus) (model.LoanRequest, error) {
	loan, err := s.store.Get(ctx, id)
	if err != nil {
		return model.LoanRequest{}, err
	}
	if loan.Status != types.LoanStatusPending {
		return model.LoanRequest{}, ErrAlreadyReviewed
	}
	ok, err := s.store.UpdateStatus(ctx, id, types.LoanStatusPending, next)
	if err != nil {
		return model.LoanRequest{}, fmt.Errorf("review loan: %w", err)
	}
	if !ok {
		return model.LoanRequest{}, ErrAlreadyReviewed
	}
	s.log.Info("loan reviewed", zap.String("loan_id", id), zap.String("status", string(next)))
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.LoanRequest, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) ListByStatus(ctx context.Context, status types.LoanStatus, limit int) ([]model.LoanRequest, error) {
	switch status {
	case types.LoanStatusPending, types.LoanStatusApproved, types.LoanStatusRejected:
	default:
		return nil, &ValidationError{Msg: "unknown loan status"}
	}
	return s.store.ListByStatus(ctx, status, limit)
}
