package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/identity"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware(zap.NewNop().Sugar()))
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		ident := IdentityFrom(c)
		if ident == nil {
			c.JSON(http.StatusOK, gin.H{"uid": ""})
			return
		}
		c.JSON(http.StatusOK, gin.H{"uid": ident.UID})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	provider := identity.Static{"good": {UID: "u1", Email: "a@b.co"}}
	r := newRouter(AuthMiddleware(provider))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "Bearer bad").Code)

	rec := do(r, "/whoami", "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"u1"}`, rec.Body.String())
}

func TestOptionalAuthMiddleware(t *testing.T) {
	provider := identity.Static{"good": {UID: "u1"}}
	r := newRouter(OptionalAuthMiddleware(provider))

	rec := do(r, "/whoami", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":""}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "Bearer bad").Code)
	assert.JSONEq(t, `{"uid":"u1"}`, do(r, "/whoami", "Bearer good").Body.String())
}

func TestRecoveryMiddleware(t *testing.T) {
	rec := do(newRouter(), "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(RateLimitConfig{PerMinute: 1, Burst: 2}))

	assert.Equal(t, http.StatusOK, do(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/whoami", "").Code)
	rec := do(r, "/whoami", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := newRouter(RateLimitMiddleware(RateLimitConfig{}))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, "/whoami", "").Code)
	}
}
