package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jizhang-jingling/jizhang/internal/auth"
	"github.com/jizhang-jingling/jizhang/internal/http/account"
	"github.com/jizhang-jingling/jizhang/internal/http/category"
	"github.com/jizhang-jingling/jizhang/internal/http/export"
	"github.com/jizhang-jingling/jizhang/internal/http/importcsv"
	"github.com/jizhang-jingling/jizhang/internal/http/transaction"
)

// Security holds what the router needs to guard endpoints.
type Security struct {
	AllowedOrigins []string
	Tokens         *auth.Tokens
	LoginLimiter   *auth.RateLimiter
}

func New(
	sec Security,
	accountV1 *account.Handler,
	transactionsV1 *transaction.Handler,
	categoriesV1 *category.Handler,
	importV1 *importcsv.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   sec.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(sec.LoginLimiter.Middleware)
				r.Use(middleware.AllowContentType("application/json"))
				accountV1.Routes(r)
			})

			r.With(auth.Middleware(sec.Tokens)).Get("/me", accountV1.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(sec.Tokens))

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})

			r.Route("/categories", categoriesV1.Routes)

			r.Route("/import", importV1.Routes)

			r.Route("/export", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				exportV1.Routes(r)
			})
		})
	})

	return router
}
