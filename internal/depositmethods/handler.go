package depositmethods

import (
	"net/http"

	"lv-tradedesk/internal/httputil"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// List returns enabled methods only; users never see unconfigured rails.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	methods, err := Load(r.Context(), h.pool)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	enabled := make([]Method, 0, len(methods))
	for _, m := range methods {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, enabled)
}

// admin surface

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	methods, err := Load(r.Context(), h.pool)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, methods)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Methods []Method `json:"methods"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	methods, err := Save(r.Context(), h.pool, req.Methods)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, methods)
}
