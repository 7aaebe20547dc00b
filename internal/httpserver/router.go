package httpserver

import (
	"net/http"

	"lv-tradedesk/internal/admin"
	"lv-tradedesk/internal/auth"
	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/depositmethods"
	"lv-tradedesk/internal/health"
	"lv-tradedesk/internal/httputil"
	"lv-tradedesk/internal/ledger"
	"lv-tradedesk/internal/loans"
	"lv-tradedesk/internal/orders"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	AuthHandler    *auth.Handler
	BalanceHandler *balance.Handler
	OrderHandler   *orders.Handler
	LedgerHandler  *ledger.Handler
	LoanHandler    *loans.Handler
	AdminHandler   *admin.Handler
	MethodsHandler *depositmethods.Handler
	HealthHandler  *health.Handler
	AuthService    *auth.Service
	JWTSecret      string
	WSHandler      http.Handler
	AdminWSHandler http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		r.Get("/ws", d.WSHandler.ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/deposit-methods", d.MethodsHandler.List)
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.AuthHandler.Me(w, r, userID)
			})
			r.Get("/balance", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.BalanceHandler.Get(w, r, userID)
			})
			r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.OrderHandler.Create(w, r, userID)
			})
			r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.OrderHandler.ListMine(w, r, userID)
			})
			r.Post("/orders/{id}/sell", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.OrderHandler.RequestSell(w, r, userID, chi.URLParam(r, "id"))
			})
			r.Post("/transactions/deposit", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.LedgerHandler.Deposit(w, r, userID)
			})
			r.Post("/transactions/withdraw", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.LedgerHandler.Withdraw(w, r, userID)
			})
			r.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.LedgerHandler.ListMine(w, r, userID)
			})
			r.Post("/loans", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.LoanHandler.Request(w, r, userID)
			})
			r.Get("/loans", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				d.LoanHandler.ListMine(w, r, userID)
			})
		})
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", d.AdminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(admin.AdminAuthMiddleware(d.JWTSecret))
				r.Get("/me", d.AdminHandler.Me)
				r.Get("/ws", d.AdminWSHandler.ServeHTTP)
				// Order review
				r.With(admin.RequireRight(admin.RightOrders)).Get("/orders", d.OrderHandler.ListByStatus)
				r.With(admin.RequireRight(admin.RightOrders)).Post("/orders/{id}/approve-buy", func(w http.ResponseWriter, r *http.Request) {
					d.OrderHandler.ApproveBuy(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightOrders)).Post("/orders/{id}/reject-buy", func(w http.ResponseWriter, r *http.Request) {
					d.OrderHandler.RejectBuy(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightOrders)).Post("/orders/{id}/price", func(w http.ResponseWriter, r *http.Request) {
					d.OrderHandler.EditBuyPrice(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightOrders)).Post("/orders/{id}/approve-sell", func(w http.ResponseWriter, r *http.Request) {
					d.OrderHandler.ApproveSell(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightOrders)).Post("/orders/{id}/reject-sell", func(w http.ResponseWriter, r *http.Request) {
					d.OrderHandler.RejectSell(w, r, chi.URLParam(r, "id"))
				})
				// Transaction review
				r.With(admin.RequireRight(admin.RightTransactions)).Get("/deposit-methods", d.MethodsHandler.ListAll)
				r.With(admin.RequireRight(admin.RightTransactions)).Post("/deposit-methods", d.MethodsHandler.Update)
				r.With(admin.RequireRight(admin.RightTransactions)).Get("/transactions", d.LedgerHandler.ListByStatus)
				r.With(admin.RequireRight(admin.RightTransactions)).Post("/transactions/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
					d.LedgerHandler.Complete(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightTransactions)).Post("/transactions/{id}/fail", func(w http.ResponseWriter, r *http.Request) {
					d.LedgerHandler.Fail(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightTransactions)).Post("/transactions/{id}/verify", func(w http.ResponseWriter, r *http.Request) {
					d.LedgerHandler.Verify(w, r, chi.URLParam(r, "id"))
				})
				// Loan review
				r.With(admin.RequireRight(admin.RightLoans)).Get("/loans", d.LoanHandler.ListByStatus)
				r.With(admin.RequireRight(admin.RightLoans)).Post("/loans/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
					d.LoanHandler.Approve(w, r, chi.URLParam(r, "id"))
				})
				r.With(admin.RequireRight(admin.RightLoans)).Post("/loans/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
					d.LoanHandler.Reject(w, r, chi.URLParam(r, "id"))
				})
				// User inspection
				r.Get("/users/{id}/balance", func(w http.ResponseWriter, r *http.Request) {
					d.BalanceHandler.GetForUser(w, r, chi.URLParam(r, "id"))
				})
				// Diagnostics
				r.Get("/system/health", d.HealthHandler.Full)
				r.Get("/system/metrics", d.HealthHandler.Metrics)
			})
		})
	})
	return r
}
