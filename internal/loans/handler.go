package loans

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

type loanRequest struct {
	Amount       string `json:"amount"`
	DurationDays int    `json:"duration_days"`
}

func (h *Handler) Request(w http.ResponseWriter, r *http.Request, userID string) {
	var req loanRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	loan, err := h.svc.Request(r.Context(), userID, amount, req.DurationDays)
	if err != nil {
		writeLoanError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, loan)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request, userID string) {
	out, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		writeLoanError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// admin surface

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request, loanID string) {
	loan, err := h.svc.Approve(r.Context(), loanID)
	if err != nil {
		writeLoanError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request, loanID string) {
	loan, err := h.svc.Reject(r.Context(), loanID)
	if err != nil {
		writeLoanError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := types.LoanStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status == "" {
		status = types.LoanStatusPending
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeLoanError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func writeLoanError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrLoanNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPendingLoanExists), errors.Is(err, ErrAlreadyReviewed):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
