package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, key string, method jwt.SigningMethod, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	s, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func newRouter(secret string) *gin.Engine {
	log := logger.NewWithWriter("error", io.Discard)
	r := gin.New()
	r.Use(Logger(log), Recovery(log), CORS("https://admin.example"))
	r.GET("/secure", Auth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SubjectKey))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	r := newRouter(secret)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"valid", signed(t, secret, jwt.SigningMethodHS256, future), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong key", signed(t, "other", jwt.SigningMethodHS256, future), http.StatusUnauthorized},
		{"expired", signed(t, secret, jwt.SigningMethodHS256, time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"other hmac", signed(t, secret, jwt.SigningMethodHS512, future), http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodGet, "/secure", tt.token)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "ops", rec.Body.String())
			}
		})
	}
}

func TestAuth_EmptySecretRejectsAll(t *testing.T) {
	r := newRouter("")

	rec := do(r, http.MethodGet, "/secure", signed(t, "anything", jwt.SigningMethodHS256, time.Now().Add(time.Hour)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecovery(t *testing.T) {
	rec := do(newRouter(secret), http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter(secret)
	req := httptest.NewRequest(http.MethodOptions, "/secure", nil)
	req.Header.Set("Origin", "https://admin.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	r := newRouter(secret)
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
