package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "hostelmess"
)

func newProtectedRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/protected", StaffAuth(enabled, testKey, testIssuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func request(r *gin.Engine, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStaffAuthDisabledPassesThrough(t *testing.T) {
	r := newProtectedRouter(false)
	if w := request(r, ""); w.Code != http.StatusOK {
		t.Errorf("status %d, want 200 when auth is off", w.Code)
	}
}

func TestStaffAuthRejectsMissingToken(t *testing.T) {
	r := newProtectedRouter(true)
	if w := request(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestStaffAuthAcceptsIssuedToken(t *testing.T) {
	token, exp, err := Issue("staff_1", "staff", testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry %v already past", exp)
	}

	r := newProtectedRouter(true)
	if w := request(r, token); w.Code != http.StatusOK {
		t.Errorf("status %d: %s", w.Code, w.Body)
	}
}

func TestStaffAuthRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("staff_1", "staff", testIssuer, "another-key", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	r := newProtectedRouter(true)
	if w := request(r, token); w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestStaffAuthRejectsExpiredToken(t *testing.T) {
	token, _, err := Issue("staff_1", "staff", testIssuer, testKey, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	r := newProtectedRouter(true)
	if w := request(r, token); w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestParseChecksIssuer(t *testing.T) {
	token, _, err := Issue("staff_1", "staff", "someone-else", testKey, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, testKey, testIssuer); err == nil {
		t.Error("issuer mismatch accepted")
	}
}
