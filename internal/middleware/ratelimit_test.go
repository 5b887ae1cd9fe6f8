package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(rate int, interval time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(rate, interval).Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterBlocksAfterBudget(t *testing.T) {
	r := newLimitedRouter(3, time.Minute)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doRequest(r, "10.0.0.1"))
	}
	require.Equal(t, http.StatusTooManyRequests, doRequest(r, "10.0.0.1"))
}

func TestRateLimiterIsPerIP(t *testing.T) {
	r := newLimitedRouter(1, time.Minute)

	require.Equal(t, http.StatusOK, doRequest(r, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, doRequest(r, "10.0.0.1"))

	// A different client keeps its own budget.
	require.Equal(t, http.StatusOK, doRequest(r, "10.0.0.2"))
}
