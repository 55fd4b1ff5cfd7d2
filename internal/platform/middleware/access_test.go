package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/waitlist/internal/platform/auth"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runAccessLog(t *testing.T, req *http.Request, h echo.HandlerFunc) (map[string]interface{}, error) {
	t.Helper()
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(requestIDKey, "req-123")

	err := AccessLog(zerolog.New(&buf))(h)(c)
	if buf.Len() == 0 {
		return nil, err
	}
	var line map[string]interface{}
	if jsonErr := json.Unmarshal(buf.Bytes(), &line); jsonErr != nil {
		t.Fatalf("decode log line: %v", jsonErr)
	}
	return line, err
}

func TestAccessLog_PatientRead(t *testing.T) {
	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+id, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{
		Subject: "u-7", Name: "Dr. Lee", Roles: []string{auth.RoleSurgeon},
	}))

	line, err := runAccessLog(t, req, okHandler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]interface{}{
		"type":        "phi_access",
		"request_id":  "req-123",
		"user_id":     "u-7",
		"user_name":   "Dr. Lee",
		"resource":    "patients",
		"patient_ref": id,
		"action":      "read",
		"status":      float64(200),
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, line[k])
		}
	}
}

func TestAccessLog_ErrorStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+uuid.New().String(), nil)
	line, err := runAccessLog(t, req, func(echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	})
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if line["status"] != float64(404) || line["action"] != "delete" {
		t.Errorf("unexpected entry %v", line)
	}
}

func TestAccessLog_SkipsOtherPaths(t *testing.T) {
	line, _ := runAccessLog(t, httptest.NewRequest(http.MethodGet, "/health", nil), okHandler)
	if line != nil {
		t.Errorf("expected no log line, got %v", line)
	}
}

func TestActionOf(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/v1/patients", "read"},
		{http.MethodPost, "/api/v1/patients", "create"},
		{http.MethodPut, "/api/v1/patients/x", "update"},
		{http.MethodPatch, "/api/v1/patients/x/status", "update"},
		{http.MethodDelete, "/api/v1/patients/x", "delete"},
		{http.MethodGet, "/api/v1/export.csv", "export"},
		{http.MethodGet, "/api/v1/audit-logs/export.csv", "export"},
	}
	for _, tt := range tests {
		if got := actionOf(tt.method, tt.path); got != tt.want {
			t.Errorf("actionOf(%s %s) = %s, want %s", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestResourceOf(t *testing.T) {
	tests := map[string]string{
		"/api/v1/patients":          "patients",
		"/api/v1/patients/1/status": "patients",
		"/api/v1/export.csv":        "export.csv",
		"/api/v1/":                  "unknown",
	}
	for path, want := range tests {
		if got := resourceOf(path); got != want {
			t.Errorf("resourceOf(%s) = %s, want %s", path, got, want)
		}
	}
}

func TestPatientRefOf(t *testing.T) {
	id := uuid.New().String()
	tests := map[string]string{
		"/api/v1/patients/" + id:             id,
		"/api/v1/patients/" + id + "/status": id,
		"/api/v1/patients/schedule":          "",
		"/api/v1/patients":                   "",
		"/api/v1/audit-logs":                 "",
	}
	for path, want := range tests {
		if got := patientRefOf(path); got != want {
			t.Errorf("patientRefOf(%s) = %q, want %q", path, got, want)
		}
	}
}
