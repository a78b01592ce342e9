package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/jizhang-jingling/jizhang/internal/auth"
	"github.com/jizhang-jingling/jizhang/internal/category"
	"github.com/jizhang-jingling/jizhang/internal/export"
	apihttp "github.com/jizhang-jingling/jizhang/internal/http"
	"github.com/jizhang-jingling/jizhang/internal/http/account"
	cathttp "github.com/jizhang-jingling/jizhang/internal/http/category"
	exporthttp "github.com/jizhang-jingling/jizhang/internal/http/export"
	"github.com/jizhang-jingling/jizhang/internal/http/importcsv"
	txhttp "github.com/jizhang-jingling/jizhang/internal/http/transaction"
	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/user"
)

func newRouter(t *testing.T) (http.Handler, *user.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	txRepo := transaction.NewMockRepository(ctrl)
	userRepo := user.NewMockRepository(ctrl)

	tokens := auth.NewTokens("secret", time.Hour)
	intakeSvc := intake.NewService(txRepo)
	txSvc := transaction.NewService(txRepo)

	router := apihttp.New(
		apihttp.Security{
			AllowedOrigins: []string{"http://localhost:5173"},
			Tokens:         tokens,
			LoginLimiter:   auth.NewRateLimiter(0.001, 2),
		},
		account.NewHandler(user.NewService(userRepo), tokens),
		txhttp.NewHandler(intakeSvc, txSvc),
		cathttp.NewHandler(category.New(), matching.NewService(matching.NewMockRepository(ctrl))),
		importcsv.NewHandler(importer.NewService(), intakeSvc),
		exporthttp.NewHandler(export.NewService(txSvc)),
	)

	return router, userRepo
}

func TestRouter_Health(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	router, _ := newRouter(t)

	for _, path := range []string{"/api/v1/transactions", "/api/v1/categories", "/api/v1/auth/me"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	router, userRepo := newRouter(t)

	userRepo.EXPECT().GetByEmail(gomock.Any(), "ming@example.com").Return(nil, user.ErrNotFound).Times(2)

	codes := make([]int, 0, 3)

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ming@example.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transactions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
