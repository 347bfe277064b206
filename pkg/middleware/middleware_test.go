package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitReturns429(t *testing.T) {
	limiter := NewRateLimiter(1)
	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/api/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, "/api/orders", ""); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	if w := serve(r, "/api/orders", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}
	// buckets are per route
	if w := serve(r, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("other route = %d", w.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(0).Handler())
	r.GET("/api/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		if w := serve(r, "/api/orders", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	l := NewRateLimiter(60)
	l.getLimiter("/api/orders", "10.0.0.1")
	l.visitors["10.0.0.1:/api/orders"].lastSeen = time.Now().Add(-time.Hour)
	l.getLimiter("/api/orders", "10.0.0.2")

	l.Cleanup(time.Minute)

	if len(l.visitors) != 1 {
		t.Fatalf("visitors = %d, want 1", len(l.visitors))
	}
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + s
}

func TestJWTAuth(t *testing.T) {
	r := gin.New()
	r.Use(JWTAuth("secret"))
	r.GET("/api/orders", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("clientID"))
	})

	exp := time.Now().Add(time.Hour).Unix()

	w := serve(r, "/api/orders", signed(t, "secret", jwt.MapClaims{"client_id": "po-client", "exp": exp}))
	if w.Code != http.StatusOK || w.Body.String() != "po-client" {
		t.Fatalf("valid token = %d %q", w.Code, w.Body.String())
	}

	cases := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic abc",
		"wrong secret":    signed(t, "other", jwt.MapClaims{"client_id": "po-client", "exp": exp}),
		"missing claim":   signed(t, "secret", jwt.MapClaims{"exp": exp}),
		"expired":         signed(t, "secret", jwt.MapClaims{"client_id": "po-client", "exp": time.Now().Add(-time.Hour).Unix()}),
		"garbage payload": "Bearer not.a.token",
	}
	for name, header := range cases {
		if w := serve(r, "/api/orders", header); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}
