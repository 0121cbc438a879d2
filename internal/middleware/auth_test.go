package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/SscSPs/community_billing/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-that-is-long-enough"

func newAuthRouter(issuer string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", middleware.AuthMiddleware(secret, issuer), func(c *gin.Context) {
		callerID, _ := middleware.GetCallerIDFromContext(c)
		c.String(http.StatusOK, callerID)
	})
	return r
}

func call(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_AcceptsServiceToken(t *testing.T) {
	token, err := utils.GenerateServiceToken("svc-checkout", secret, time.Hour, "billing")
	require.NoError(t, err)

	w := call(newAuthRouter("billing"), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "svc-checkout", w.Body.String())
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	wrongIssuer, err := utils.GenerateServiceToken("svc", secret, time.Hour, "someone-else")
	require.NoError(t, err)
	wrongSecret, err := utils.GenerateServiceToken("svc", "another-secret", time.Hour, "billing")
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "svc",
		Issuer:    "billing",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "billing",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantMessage   string
	}{
		{name: "missing header", authorization: "", wantMessage: "Authorization header required"},
		{name: "not bearer", authorization: "Basic abc", wantMessage: "Bearer {token}"},
		{name: "wrong issuer", authorization: "Bearer " + wrongIssuer, wantMessage: "Invalid token"},
		{name: "wrong secret", authorization: "Bearer " + wrongSecret, wantMessage: "Invalid token"},
		{name: "expired", authorization: "Bearer " + expired, wantMessage: "Token has expired"},
		{name: "no subject", authorization: "Bearer " + noSubject, wantMessage: "Invalid token claims"},
	}
	r := newAuthRouter("billing")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.authorization)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			assert.Contains(t, w.Body.String(), tt.wantMessage)
		})
	}
}
