package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lv-tradedesk/internal/httputil"
	"lv-tradedesk/internal/types"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type transactionRequest struct {
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	tx, err := h.svc.Deposit(r.Context(), userID, amount, req.Reference)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	tx, err := h.svc.Withdraw(r.Context(), userID, amount, req.Reference)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request, userID string) {
	out, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// admin surface

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request, txID string) {
	tx, err := h.svc.Complete(r.Context(), txID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) Fail(w http.ResponseWriter, r *http.Request, txID string) {
	tx, err := h.svc.Fail(r.Context(), txID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request, txID string) {
	tx, err := h.svc.Verify(r.Context(), txID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := types.TransactionStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status == "" {
		status = types.TransactionStatusPending
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func writeLedgerError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTransactionNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadySettled):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
