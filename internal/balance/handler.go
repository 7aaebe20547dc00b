package balance

import (
	"net/http"

	"lv-tradedesk/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	snap, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// GetForUser serves the admin risk screen; same derivation, different caller.
func (h *Handler) GetForUser(w http.ResponseWriter, r *http.Request, userID string) {
	snap, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}
