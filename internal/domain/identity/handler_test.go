package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medilab/lis/internal/platform/session"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc := newTestService()
	sessions := session.NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)
	return NewHandler(svc, sessions), svc
}

func TestLoginLIS_SetsSessionCookie(t *testing.T) {
	h, svc := newTestHandler(t)
	if _, err := svc.CreateAdmin(context.Background(), "labadmin", "s3cretpass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/lis/login",
		strings.NewReader(`{"username":"labadmin","password":"s3cretpass"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.LoginLIS(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName && ck.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie on login response")
	}
}

func TestLoginLIS_BadCredentials(t *testing.T) {
	h, svc := newTestHandler(t)
	if _, err := svc.CreateAdmin(context.Background(), "labadmin", "s3cretpass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/lis/login",
		strings.NewReader(`{"username":"labadmin","password":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.LoginLIS(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestCreateLabAttendant_Conflict(t *testing.T) {
	h, svc := newTestHandler(t)
	ctx := context.Background()
	if _, err := svc.CreateLabAttendant(ctx, "jdoe", "password1", "J. Doe", "jdoe@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users/lab-attendants",
		strings.NewReader(`{"username":"jdoe","password":"password1","name":"Other","email":"o@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateLabAttendant(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %v", err)
	}
}
