package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func newSkipperContext(e *echo.Echo, path string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	return c
}

func TestAuthSkipper_PublicPaths(t *testing.T) {
	e := echo.New()
	for _, path := range []string{"/health", "/health/db"} {
		if !AuthSkipper(newSkipperContext(e, path)) {
			t.Errorf("expected AuthSkipper to return true for %s", path)
		}
	}
}

func TestAuthSkipper_ProtectedPaths(t *testing.T) {
	e := echo.New()
	for _, path := range []string{"/api/v1/patients", "/api/v1/appointments", "/"} {
		if AuthSkipper(newSkipperContext(e, path)) {
			t.Errorf("expected AuthSkipper to return false for %s", path)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	if !IsPublicPath("/health") {
		t.Error("expected /health to be public")
	}
	if IsPublicPath("/api/v1/patients") {
		t.Error("expected /api/v1/patients to be protected")
	}
}

func TestJWTMiddleware_SkipperBypassesAuth(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{
		SigningKey: []byte("test-secret"),
		Skipper:    AuthSkipper,
	})

	e := echo.New()
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c := newSkipperContext(e, "/health")
	if err := handler(c); err != nil {
		t.Fatalf("expected /health to bypass auth, got %v", err)
	}

	c = newSkipperContext(e, "/api/v1/patients")
	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for protected path without token, got %v", err)
	}
}

func TestJWTMiddleware_SkipperStillValidatesTokens(t *testing.T) {
	secret := []byte("test-secret")
	mw := JWTMiddleware(JWTConfig{
		SigningKey: secret,
		Skipper:    AuthSkipper,
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"doctor"},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	e := echo.New()
	handler := mw(func(c echo.Context) error {
		if got := UserIDFromContext(c.Request().Context()); got != "user-1" {
			t.Errorf("expected user-1 in context, got %q", got)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/patients")

	if err := handler(c); err != nil {
		t.Fatalf("expected valid token to pass, got %v", err)
	}
}
