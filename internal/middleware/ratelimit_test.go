package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	l := NewRateLimiter(2, time.Minute)
	now := time.Now()

	if !l.Allow("a", now) || !l.Allow("a", now) {
		t.Fatal("first two requests rejected")
	}
	if l.Allow("a", now.Add(time.Second)) {
		t.Fatal("third request in window allowed")
	}
	// Other keys have their own budget.
	if !l.Allow("b", now) {
		t.Fatal("fresh key rejected")
	}
	// A new window resets the count.
	if !l.Allow("a", now.Add(time.Minute)) {
		t.Fatal("request in next window rejected")
	}
}

func TestRateLimitKeysAuthenticatedRequestsByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// One request per window; both users share the same remote address.
	limited := RateLimit(NewRateLimiter(1, time.Minute))
	r.GET("/u/:id", func(c *gin.Context) {
		if c.Param("id") == "1" {
			c.Set("user_id", uint(1))
		} else {
			c.Set("user_id", uint(2))
		}
		c.Next()
	}, limited, func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := get("/u/1"); code != http.StatusOK {
		t.Fatalf("user 1 first request = %d", code)
	}
	if code := get("/u/2"); code != http.StatusOK {
		t.Fatalf("user 2 throttled by user 1's bucket: %d", code)
	}
	if code := get("/u/1"); code != http.StatusTooManyRequests {
		t.Fatalf("user 1 second request = %d, want 429", code)
	}
}
