package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"lv-tradedesk/internal/httputil"
)

// Admin rights gate the review surfaces. Every right is granted explicitly;
// the "owner" role implies all of them.
const (
	RightOrders       = "orders"
	RightTransactions = "transactions"
	RightLoans        = "loans"
)

var allAdminRights = []string{RightOrders, RightTransactions, RightLoans}

// Handler handles admin authentication.
type Handler struct {
	pool      *pgxpool.Pool
	jwtSecret []byte
}

func NewHandler(pool *pgxpool.Pool, jwtSecret string) *Handler {
	return &Handler{pool: pool, jwtSecret: []byte(jwtSecret)}
}

// Login authenticates against admin_users and issues a JWT carrying the
// admin's rights.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var id, passwordHash, role string
	var rights []string
	err := h.pool.QueryRow(r.Context(),
		"SELECT id, password_hash, role, rights FROM admin_users WHERE username = $1", req.Username,
	).Scan(&id, &passwordHash, &role, &rights)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      id,
		"username": req.Username,
		"role":     role,
		"rights":   rights,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenStr, err := token.SignedString(h.jwtSecret)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"token":    tokenStr,
		"username": req.Username,
	})
}

// Me returns the authenticated admin's identity and rights.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, _ := r.Context().Value(adminUsernameKey).(string)
	role, _ := r.Context().Value(adminRoleKey).(string)
	rights, _ := r.Context().Value(adminRightsKey).(map[string]bool)
	granted := make([]string, 0, len(rights))
	for right, ok := range rights {
		if ok {
			granted = append(granted, right)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"role":     role,
		"rights":   granted,
	})
}

// AdminAuthMiddleware validates the admin JWT and seeds the request context
// with role and rights.
func AdminAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "missing authorization")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				httputil.WriteError(w, http.StatusUnauthorized, "invalid claims")
				return
			}
			role, _ := claims["role"].(string)
			if role != "admin" && role != "owner" {
				httputil.WriteError(w, http.StatusForbidden, "admin access required")
				return
			}
			username, _ := claims["username"].(string)
			rightsMap := map[string]bool{}
			if rightsRaw, ok := claims["rights"].([]interface{}); ok {
				for _, raw := range rightsRaw {
					if right, ok := raw.(string); ok && right != "" {
						rightsMap[right] = true
					}
				}
			}
			if role == "owner" {
				for _, right := range allAdminRights {
					rightsMap[right] = true
				}
			}
			ctx := context.WithValue(r.Context(), adminUsernameKey, username)
			ctx = context.WithValue(ctx, adminRoleKey, role)
			ctx = context.WithValue(ctx, adminRightsKey, rightsMap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type contextKey string

const adminUsernameKey contextKey = "admin_username"
const adminRoleKey contextKey = "admin_role"
const adminRightsKey contextKey = "admin_rights"

func RequireRight(right string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(adminRoleKey).(string)
			if role == "owner" {
				next.ServeHTTP(w, r)
				return
			}
			rights, _ := r.Context().Value(adminRightsKey).(map[string]bool)
			if rights == nil || !rights[right] {
				httputil.WriteError(w, http.StatusForbidden, "insufficient rights")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
