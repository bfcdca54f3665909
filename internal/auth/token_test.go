package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func TestSignParseRoundtrip(t *testing.T) {
	token, err := Sign(testSecret, "user-a", time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	userID, err := Parse(testSecret, token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if userID != "user-a" {
		t.Fatalf("userID = %q, want user-a", userID)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := Sign(testSecret, "user-a", time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := Parse("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := Sign(testSecret, "user-a", -time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := Parse(testSecret, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(testSecret, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireSession(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": MustUserID(c)})
	})
	return r
}

func TestRequireSessionCookie(t *testing.T) {
	r := newAuthRouter()

	token, _ := Sign(testSecret, "user-a", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireSessionBearerFallback(t *testing.T) {
	r := newAuthRouter()

	token, _ := Sign(testSecret, "user-a", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireSessionRejectsBadToken(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "bogus"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
