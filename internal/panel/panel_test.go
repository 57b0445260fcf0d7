package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appMiddleware "github.com/wayfarer-bot/wayfarer/app/middleware"
	"github.com/wayfarer-bot/wayfarer/config"
	"github.com/wayfarer-bot/wayfarer/internal/api"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

type mockAdminRepo struct{ mock.Mock }

var _ store.AdminRepo = (*mockAdminRepo)(nil)

func (m *mockAdminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	args := m.Called(ctx, username)
	admin, _ := args.Get(0).(*models.Admin)
	return admin, args.Error(1)
}

func (m *mockAdminRepo) Create(ctx context.Context, username, passwordHash string) (*models.Admin, error) {
	args := m.Called(ctx, username, passwordHash)
	admin, _ := args.Get(0).(*models.Admin)
	return admin, args.Error(1)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{SecretKey: "test-secret", TokenTTL: time.Hour, Issuer: "wayfarer"}
}

func newLoginService(t *testing.T, password string) (*Service, *models.Admin) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &models.Admin{ID: uuid.New(), Username: "ops", PasswordHash: string(hash)}
	admins := new(mockAdminRepo)
	admins.On("GetByUsername", mock.Anything, "ops").Return(admin, nil)
	admins.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(admins, nil, nil, nil, nil, testJWTConfig(), logger), admin
}

func TestLogin(t *testing.T) {
	t.Run("issues a verifiable token", func(t *testing.T) {
		service, admin := newLoginService(t, "hunter2")

		token, err := service.Login(context.Background(), "ops", "hunter2")
		require.NoError(t, err)

		claims := &appMiddleware.Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, "ops", claims.Username)
		assert.Equal(t, admin.ID.String(), claims.Subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		service, _ := newLoginService(t, "hunter2")

		_, err := service.Login(context.Background(), "ops", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		service, _ := newLoginService(t, "hunter2")

		_, err := service.Login(context.Background(), "nobody", "hunter2")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginHandler(t *testing.T) {
	service, _ := newLoginService(t, "hunter2")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(service, logger)

	t.Run("success returns a token", func(t *testing.T) {
		body, _ := json.Marshal(api.LoginRequest{Username: "ops", Password: "hunter2"})
		req := httptest.NewRequest(http.MethodPost, "/panel/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("bad credentials return 401", func(t *testing.T) {
		body, _ := json.Marshal(api.LoginRequest{Username: "ops", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/panel/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/panel/login", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthenticateMiddleware(t *testing.T) {
	service, _ := newLoginService(t, "hunter2")
	token, err := service.Login(context.Background(), "ops", "hunter2")
	require.NoError(t, err)

	var sawUsername string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUsername, _ = appMiddleware.GetAdminUsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := appMiddleware.Authenticate([]byte("test-secret"))(next)

	t.Run("valid token passes and exposes the username", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/panel/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ops", sawUsername)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/panel/users", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		otherService, _ := func() (*Service, *models.Admin) {
			hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
			admin := &models.Admin{ID: uuid.New(), Username: "ops", PasswordHash: string(hash)}
			admins := new(mockAdminRepo)
			admins.On("GetByUsername", mock.Anything, "ops").Return(admin, nil)
			cfg := config.JWTConfig{SecretKey: "other-secret", TokenTTL: time.Hour, Issuer: "wayfarer"}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			return NewService(admins, nil, nil, nil, nil, cfg, logger), admin
		}()
		otherToken, err := otherService.Login(context.Background(), "ops", "hunter2")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/panel/users", nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
