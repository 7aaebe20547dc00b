package orders

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

type createOrderRequest struct {
	Symbol    string `json:"symbol"`
	Direction string `json:"direction"`
	Quantity  string `json:"quantity"`
	BuyPrice  string `json:"buy_price"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, userID string) {
	var req createOrderRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid quantity")
		return
	}
	price, err := decimal.NewFromString(req.BuyPrice)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid buy_price")
		return
	}
	o, err := h.svc.CreateOrder(r.Context(), CreateOrderRequest{
		UserID:    userID,
		Symbol:    req.Symbol,
		Direction: types.OrderDirection(strings.ToLower(strings.TrimSpace(req.Direction))),
		Quantity:  qty,
		BuyPrice:  price,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) RequestSell(w http.ResponseWriter, r *http.Request, userID, orderID string) {
	o, err := h.svc.RequestSell(r.Context(), orderID, userID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request, userID string) {
	out, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// admin surface

func (h *Handler) ApproveBuy(w http.ResponseWriter, r *http.Request, orderID string) {
	o, err := h.svc.ApproveBuy(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) RejectBuy(w http.ResponseWriter, r *http.Request, orderID string) {
	o, err := h.svc.RejectBuy(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

type editPriceRequest struct {
	BuyPrice string `json:"buy_price"`
}

func (h *Handler) EditBuyPrice(w http.ResponseWriter, r *http.Request, orderID string) {
	var req editPriceRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.BuyPrice)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid buy_price")
		return
	}
	o, err := h.svc.EditBuyPrice(r.Context(), orderID, price)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

type approveSellRequest struct {
	SellPrice string `json:"sell_price"`
}

func (h *Handler) ApproveSell(w http.ResponseWriter, r *http.Request, orderID string) {
	var req approveSellRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.SellPrice)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid sell_price")
		return
	}
	o, err := h.svc.ApproveSell(r.Context(), orderID, price)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) RejectSell(w http.ResponseWriter, r *http.Request, orderID string) {
	o, err := h.svc.RejectSell(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := types.OrderStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status == "" {
		status = types.OrderStatusPending
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// writeOrderError maps the error taxonomy onto HTTP statuses. Messages are
// surfaced verbatim; none of these are retried by callers.
func writeOrderError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	var tErr *InvalidTransitionError
	switch {
	case errors.As(err, &vErr):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		httputil.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyProcessed), errors.As(err, &tErr):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
