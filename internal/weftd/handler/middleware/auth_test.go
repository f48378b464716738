package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthRouter(cfg *AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(BearerAuth(cfg))
	g.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	g.POST("/v1/chat/completions", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return g
}

func authReq(g *gin.Engine, method, path, header, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestBearerAuthDisabledPassesThrough(t *testing.T) {
	g := newAuthRouter(&AuthConfig{Enabled: false, Token: "s3cret"})
	w := authReq(g, http.MethodPost, "/v1/chat/completions", "", "203.0.113.9:4242")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuthRejectsExternalClients(t *testing.T) {
	g := newAuthRouter(&AuthConfig{Enabled: true, Token: "s3cret"})

	w := authReq(g, http.MethodPost, "/v1/chat/completions", "", "203.0.113.9:4242")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_error")

	w = authReq(g, http.MethodPost, "/v1/chat/completions", "Bearer wrong", "203.0.113.9:4242")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid bearer token")

	w = authReq(g, http.MethodPost, "/v1/chat/completions", "Basic s3cret", "203.0.113.9:4242")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthAcceptsToken(t *testing.T) {
	g := newAuthRouter(&AuthConfig{Enabled: true, Token: "s3cret"})
	w := authReq(g, http.MethodPost, "/v1/chat/completions", "Bearer s3cret", "203.0.113.9:4242")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuthSkipPaths(t *testing.T) {
	g := newAuthRouter(&AuthConfig{Enabled: true, Token: "s3cret", SkipPaths: []string{"/healthz"}})
	w := authReq(g, http.MethodGet, "/healthz", "", "203.0.113.9:4242")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuthLoopbackBypass(t *testing.T) {
	g := newAuthRouter(&AuthConfig{Enabled: true, Token: "s3cret"})

	w := authReq(g, http.MethodPost, "/v1/chat/completions", "", "127.0.0.1:5555")
	assert.Equal(t, http.StatusOK, w.Code)

	w = authReq(g, http.MethodPost, "/v1/chat/completions", "", "[::1]:5555")
	assert.Equal(t, http.StatusOK, w.Code)
}
