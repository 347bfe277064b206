package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("test-jwt-secret", "po-client", "s3cret")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.GenerateToken(Credentials{APIKey: "po-client", APISecret: "s3cret"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.ClientID != "po-client" {
		t.Fatalf("client_id = %s", claims.ClientID)
	}
}

func TestGenerateTokenRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	for _, creds := range []Credentials{
		{APIKey: "po-client", APISecret: "wrong"},
		{APIKey: "other", APISecret: "s3cret"},
	} {
		if _, err := svc.GenerateToken(creds); err != ErrInvalidCredentials {
			t.Errorf("GenerateToken(%+v) err = %v", creds, err)
		}
	}
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	resp, err := svc.GenerateToken(Credentials{APIKey: "po-client", APISecret: "s3cret"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(resp.Token); err == nil {
		t.Fatal("expired token accepted")
	}

	other, err := NewService("another-secret", "po-client", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := other.GenerateToken(Credentials{APIKey: "po-client", APISecret: "s3cret"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newTestService(t).ValidateToken(fresh.Token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestGenerateTokenHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/token", NewGinHandlers(newTestService(t)).GenerateTokenHandler())

	cases := []struct {
		body   string
		status int
	}{
		{`{"api_key":"po-client","api_secret":"s3cret"}`, http.StatusCreated},
		{`{"api_key":"po-client","api_secret":"nope"}`, http.StatusUnauthorized},
		{`{"api_key":"po-client"}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.body, w.Code, tc.status)
		}
		if tc.status == http.StatusCreated && !strings.Contains(w.Body.String(), "jwt_token") {
			t.Errorf("body = %s", w.Body.String())
		}
	}
}
