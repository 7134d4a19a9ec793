package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg SwaggerConfig, jwt gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func swaggerGet(router http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	denyAll := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	allowAll := func(c *gin.Context) {}

	tests := []struct {
		name   string
		cfg    SwaggerConfig
		jwt    gin.HandlerFunc
		remote string
		want   int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, nil, "10.0.0.1:1", http.StatusNotFound},
		{"open", SwaggerConfig{Enabled: true}, nil, "10.0.0.1:1", http.StatusOK},
		{"listed IP", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.1:1", http.StatusOK},
		{"unlisted IP", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "10.0.0.2:1", http.StatusForbidden},
		{"CIDR", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, nil, "192.168.4.20:1", http.StatusOK},
		{"auth rejects", SwaggerConfig{Enabled: true, RequireAuth: true}, denyAll, "10.0.0.1:1", http.StatusUnauthorized},
		{"auth passes", SwaggerConfig{Enabled: true, RequireAuth: true}, allowAll, "10.0.0.1:1", http.StatusOK},
		{"IP checked before auth", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"10.0.0.1"}}, denyAll, "10.9.9.9:1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := swaggerGet(swaggerRouter(tt.cfg, tt.jwt), tt.remote)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestParseAllowList(t *testing.T) {
	allowed := parseAllowList([]string{"10.0.0.1", " 172.16.0.0/12 ", "garbage", "::1"})
	assert.Len(t, allowed, 3)

	assert.True(t, ipAllowed("10.0.0.1", allowed))
	assert.True(t, ipAllowed("172.20.1.1", allowed))
	assert.True(t, ipAllowed("::1", allowed))
	assert.True(t, ipAllowed("::ffff:10.0.0.1", allowed))
	assert.False(t, ipAllowed("10.0.0.2", allowed))
	assert.False(t, ipAllowed("", allowed))
}
