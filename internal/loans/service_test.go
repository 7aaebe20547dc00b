package loans_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lv-tradedesk/internal/loans"
	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memStore struct {
	mu    sync.Mutex
	loans map[string]model.LoanRequest
}

func newMemStore() *memStore {
	return &memStore{loans: make(map[string]model.LoanRequest)}
}

func (m *memStore) Create(_ context.Context, loan model.LoanRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.UserID == loan.UserID && l.Status == types.LoanStatusPending {
			return loans.ErrPendingLoanExists
		}
	}
	m.loans[loan.ID] = loan
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (model.LoanRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok {
		return model.LoanRequest{}, loans.ErrLoanNotFound
	}
	return loan, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]model.LoanRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LoanRequest
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status types.LoanStatus, _ int) ([]model.LoanRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LoanRequest
	for _, l := range m.loans {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, expect, next types.LoanStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok || loan.Status != expect {
		return false, nil
	}
	loan.Status = next
	loan.UpdatedAt = time.Now().UTC()
	m.loans[id] = loan
	return true, nil
}

func TestRequest_OnePendingPerUser(t *testing.T) {
	svc := loans.NewService(newMemStore(), zap.NewNop())
	ctx := context.Background()

	first, err := svc.Request(ctx, "u1", decimal.NewFromInt(5000), 30)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if first.Status != types.LoanStatusPending {
		t.Errorf("status = %s, want pending", first.Status)
	}

	_, err = svc.Request(ctx, "u1", decimal.NewFromInt(1000), 30)
	if !errors.Is(err, loans.ErrPendingLoanExists) {
		t.Errorf("second request: got %v, want ErrPendingLoanExists", err)
	}

	// A different user is not blocked.
	if _, err := svc.Request(ctx, "u2", decimal.NewFromInt(1000), 30); err != nil {
		t.Errorf("other user request: %v", err)
	}

	// Once reviewed, the user can ask again.
	if _, err := svc.Reject(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Request(ctx, "u1", decimal.NewFromInt(2000), 60); err != nil {
		t.Errorf("request after rejection: %v", err)
	}
}

func TestRequest_Validation(t *testing.T) {
	svc := loans.NewService(newMemStore(), zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		amount decimal.Decimal
		days   int
	}{
		{decimal.Zero, 30},
		{decimal.NewFromInt(-100), 30},
		{decimal.NewFromInt(100), 0},
		{decimal.NewFromInt(100), 9999},
	}
	for i, c := range cases {
		_, err := svc.Request(ctx, "u1", c.amount, c.days)
		var vErr *loans.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("case %d: got %v, want ValidationError", i, err)
		}
	}
}

func TestReview_AtMostOnce(t *testing.T) {
	svc := loans.NewService(newMemStore(), zap.NewNop())
	ctx := context.Background()

	loan, err := svc.Request(ctx, "u1", decimal.NewFromInt(5000), 30)
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Approve(ctx, loan.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != types.LoanStatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}

	if _, err := svc.Approve(ctx, loan.ID); !errors.Is(err, loans.ErrAlreadyReviewed) {
		t.Errorf("second Approve: got %v, want ErrAlreadyReviewed", err)
	}
	if _, err := svc.Reject(ctx, loan.ID); !errors.Is(err, loans.ErrAlreadyReviewed) {
		t.Errorf("Reject after Approve: got %v, want ErrAlreadyReviewed", err)
	}
}

func TestReview_NotFound(t *testing.T) {
	svc := loans.NewService(newMemStore(), zap.NewNop())
	if _, err := svc.Approve(context.Background(), "missing"); !errors.Is(err, loans.ErrLoanNotFound) {
		t.Errorf("got %v, want ErrLoanNotFound", err)
	}
}
