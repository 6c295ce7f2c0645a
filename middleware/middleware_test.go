package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-marketplace-api/auth"
	"food-marketplace-api/models"
)

type stubRevoker map[string]bool

func (s stubRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "boom" {
		return false, errors.New("store down")
	}
	return s[jti], nil
}

func init() { gin.SetMode(gin.TestMode) }

func buildRouter(tokens *auth.TokenManager, revoked RevocationChecker, roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.GET("/protected", AuthRequired(tokens, revoked), RoleRequired(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c), "jti": GetClaims(c).ID})
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour, "tests")
	vendor := &models.User{ID: 5, Email: "v@example.com", Role: models.RoleVendor}
	token, err := tokens.Issue(vendor)
	require.NoError(t, err)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)

	r := buildRouter(tokens, stubRevoker{}, models.RoleVendor, models.RolePlatformAdmin)

	t.Run("missing header", func(t *testing.T) {
		w := get(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"auth_error"`)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer nope").Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := get(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":5`)
		assert.Contains(t, w.Body.String(), claims.ID)
	})

	t.Run("revoked token", func(t *testing.T) {
		revoked := buildRouter(tokens, stubRevoker{claims.ID: true}, models.RoleVendor)
		w := get(revoked, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})

	t.Run("wrong role", func(t *testing.T) {
		customers := buildRouter(tokens, nil, models.RoleCustomer)
		w := get(customers, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "customer")
	})
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log), CORS())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), `"status":500`)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
