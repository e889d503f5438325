package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func TestNewSessionManager_RequiresKeyInProduction(t *testing.T) {
	_, err := auth.NewSessionManager("", "enrollhub_session", "", true, zap.NewNop())
	if err == nil {
		t.Error("empty key with secure cookies should be refused")
	}

	// Dev mode falls back to an ephemeral key.
	if _, err := auth.NewSessionManager("", "enrollhub_session", "", false, zap.NewNop()); err != nil {
		t.Errorf("dev mode should accept an empty key: %v", err)
	}

	if _, err := auth.NewSessionManager("some-key", "", "", false, zap.NewNop()); err == nil {
		t.Error("empty session name should be refused")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	mgr, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "enrollhub_session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	// Sign in and capture the cookie.
	signInRec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	if err := mgr.SignIn(signInRec, signInReq, auth.Operator{Name: "admin"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	// Replay it through the middleware.
	var got auth.Operator
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = auth.CurrentOperator(r)
	})

	req := httptest.NewRequest("GET", "/students", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	mgr.LoadSession(next).ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("operator not loaded from session cookie")
	}
	if got.Name != "admin" {
		t.Errorf("operator name: got %q, want %q", got.Name, "admin")
	}

	// A bare request carries no operator.
	found = false
	mgr.LoadSession(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/students", nil))
	if found {
		t.Error("request without cookie should have no operator")
	}
}

func TestRequireSignedIn(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	rec := httptest.NewRecorder()
	auth.RequireSignedIn(next).ServeHTTP(rec, httptest.NewRequest("POST", "/students", nil))
	if reached {
		t.Error("handler should not run without an operator")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	rec = httptest.NewRecorder()
	req := auth.WithTestOperator(httptest.NewRequest("POST", "/students", nil), auth.Operator{Name: "admin"})
	auth.RequireSignedIn(next).ServeHTTP(rec, req)
	if !reached {
		t.Error("handler should run with an operator in context")
	}
}
