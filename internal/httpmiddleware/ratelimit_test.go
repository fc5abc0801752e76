package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAllowExhaustsCapacity(t *testing.T) {
	l := NewTokenBucket(3, 60)
	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d denied under capacity", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Error("request above capacity allowed")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := NewTokenBucket(1, 60)
	if !l.allow("10.0.0.1") {
		t.Fatal("first client denied")
	}
	if !l.allow("10.0.0.2") {
		t.Error("second client shares the first client's bucket")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	l := NewTokenBucket(1, 600)
	if !l.allow("10.0.0.1") {
		t.Fatal("first request denied")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("empty bucket allowed")
	}

	// 600/min refills one token every 100ms
	l.mu.Lock()
	l.state["10.0.0.1"].last = time.Now().Add(-200 * time.Millisecond)
	l.mu.Unlock()

	if !l.allow("10.0.0.1") {
		t.Error("no refill after elapsed time")
	}
}

func TestGinMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewTokenBucket(1, 60).GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("first request status %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Errorf("second request status %d, want 429", code)
	}
}
