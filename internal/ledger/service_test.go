package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/ledger"
	"lv-tradedesk/internal/model"
	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memStore struct {
	mu  sync.Mutex
	txs map[string]model.Transaction
}

func newMemStore() *memStore {
	return &memStore{txs: make(map[string]model.Transaction)}
}

func (m *memStore) Create(_ context.Context, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.ID] = tx
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return model.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Transaction
	for _, tx := range m.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status types.TransactionStatus, _ int) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Transaction
	for _, tx := range m.txs {
		if tx.Status == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, expect, next types.TransactionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.Status != expect {
		return false, nil
	}
	tx.Status = next
	tx.UpdatedAt = time.Now().UTC()
	m.txs[id] = tx
	return true, nil
}

func (m *memStore) MarkVerified(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.Verified {
		return false, nil
	}
	tx.Verified = true
	tx.UpdatedAt = time.Now().UTC()
	m.txs[id] = tx
	return true, nil
}

// facts adapter so the withdrawal balance check sees the store's transactions.
func (m *memStore) TransactionsByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	return m.ListByUser(ctx, userID)
}

func (m *memStore) LoansByUser(context.Context, string) ([]model.LoanRequest, error) {
	return nil, nil
}

func (m *memStore) OrdersByUser(context.Context, string) ([]model.Order, error) {
	return nil, nil
}

func newTestService(store *memStore) *ledger.Service {
	return ledger.NewService(store, balance.NewService(store), zap.NewNop())
}

func TestDeposit_StartsPendingAndUnverified(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	tx, err := svc.Deposit(context.Background(), "u1", decimal.NewFromInt(1000), "wire-1")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if tx.Status != types.TransactionStatusPending {
		t.Errorf("status = %s, want pending", tx.Status)
	}
	if tx.Verified {
		t.Error("new deposit must not be verified")
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.Deposit(context.Background(), "u1", decimal.Zero, "")
	var vErr *ledger.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("got %v, want ValidationError", err)
	}
}

func TestWithdraw_ChecksSpendableBalance(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	// No funds at all.
	_, err := svc.Withdraw(ctx, "u1", decimal.NewFromInt(100), "")
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}

	// A completed, verified deposit makes the withdrawal possible.
	dep, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(1000), "wire-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Complete(ctx, dep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(ctx, dep.ID); err != nil {
		t.Fatal(err)
	}

	wd, err := svc.Withdraw(ctx, "u1", decimal.NewFromInt(400), "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if wd.Status != types.TransactionStatusPending {
		t.Errorf("status = %s, want pending", wd.Status)
	}
}

func TestComplete_AtMostOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	dep, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(1000), "")
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Complete(ctx, dep.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != types.TransactionStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if _, err := svc.Complete(ctx, dep.ID); !errors.Is(err, ledger.ErrAlreadySettled) {
		t.Errorf("second Complete: got %v, want ErrAlreadySettled", err)
	}
	if _, err := svc.Fail(ctx, dep.ID); !errors.Is(err, ledger.ErrAlreadySettled) {
		t.Errorf("Fail after Complete: got %v, want ErrAlreadySettled", err)
	}
}

func TestVerify_DepositsOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	dep, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(1000), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Complete(ctx, dep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(ctx, dep.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Withdraw(ctx, "u1", decimal.NewFromInt(100), ""); err != nil {
		t.Fatal(err)
	}

	wds, err := store.ListByStatus(ctx, types.TransactionStatusPending, 10)
	if err != nil || len(wds) != 1 {
		t.Fatalf("expected one pending withdrawal, got %d (%v)", len(wds), err)
	}
	_, err = svc.Verify(ctx, wds[0].ID)
	var vErr *ledger.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("verify withdrawal: got %v, want ValidationError", err)
	}
}

func TestFail_KeepsFundsOutOfBalance(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	dep, err := svc.Deposit(ctx, "u1", decimal.NewFromInt(1000), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Fail(ctx, dep.ID); err != nil {
		t.Fatal(err)
	}

	snap := balance.Derive(balance.Facts{Transactions: mustList(t, store, "u1")})
	if !snap.SpendableBalance.Equal(decimal.Zero) {
		t.Errorf("spendable = %s, want 0 after failed deposit", snap.SpendableBalance)
	}
}

func mustList(t *testing.T, store *memStore, userID string) []model.Transaction {
	t.Helper()
	txs, err := store.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return txs
}
