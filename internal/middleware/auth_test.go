package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		w.Write([]byte(userID + "|" + RoleFromContext(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(testSecret)(echoIdentity())

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken(testSecret, "user-1", models.RoleClient, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1|client", w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken("other-secret", "user-1", "", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := GenerateToken(testSecret, "user-1", "", -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without user id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).
			SignedString([]byte(testSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoleResolver_Resolve(t *testing.T) {
	mem := store.NewMemory()
	mem.PutProfile(models.UserProfile{ID: "admin-1", Role: models.RoleAdmin})
	mem.PutProfile(models.UserProfile{ID: "blank-1"})
	resolver := NewRoleResolver(mem, zap.NewNop())

	tests := []struct {
		name     string
		ctx      context.Context
		userID   string
		fallback string
		want     string
	}{
		{"claim wins", WithIdentity(context.Background(), "admin-1", models.RoleClient), "admin-1", "", models.RoleClient},
		{"directory role", WithIdentity(context.Background(), "admin-1", ""), "admin-1", models.RoleClient, models.RoleAdmin},
		{"unknown user", context.Background(), "ghost", models.RoleClient, models.RoleClient},
		{"profile without role", context.Background(), "blank-1", models.RoleAdmin, models.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.Resolve(tt.ctx, tt.userID, tt.fallback))
		})
	}
}

func TestRequireRole(t *testing.T) {
	mem := store.NewMemory()
	mem.PutProfile(models.UserProfile{ID: "admin-1", Role: models.RoleSuperAdmin})
	handler := RequireRole(NewRoleResolver(mem, zap.NewNop()), models.RoleAdmin, models.RoleSuperAdmin)(echoIdentity())

	cases := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{"admin claim", WithIdentity(context.Background(), "u1", models.RoleAdmin), http.StatusOK},
		{"role from directory", WithIdentity(context.Background(), "admin-1", ""), http.StatusOK},
		{"client", WithIdentity(context.Background(), "u2", models.RoleClient), http.StatusForbidden},
		{"anonymous", context.Background(), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tc.ctx)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(echoIdentity()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
