package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAuthSkipper_PublicPaths(t *testing.T) {
	for _, path := range []string{"/health", "/health/db", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
			c.SetPath(path)
			if !AuthSkipper(c) {
				t.Errorf("expected AuthSkipper to return true for %s", path)
			}
			if !IsPublicPath(path) {
				t.Errorf("expected IsPublicPath true for %s", path)
			}
		})
	}
}

func TestAuthSkipper_ProtectedPaths(t *testing.T) {
	for _, path := range []string{"/api/v1/patients", "/api/v1/audit-logs", "/", "/health/extra"} {
		t.Run(path, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
			c.SetPath(path)
			if AuthSkipper(c) {
				t.Errorf("expected AuthSkipper to return false for %s", path)
			}
		})
	}
}
