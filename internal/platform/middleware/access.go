package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/waitlist/internal/platform/auth"
)

const apiPrefix = "/api/v1/"

// AccessEntry records who touched which waitlist resource. Mutations are
// diffed by the audit log; this covers reads as well.
type AccessEntry struct {
	RequestID  string
	UserID     string
	UserName   string
	Roles      []string
	Resource   string
	PatientRef string
	Action     string
	Method     string
	Path       string
	RemoteIP   string
	UserAgent  string
	StatusCode int
	Timestamp  time.Time
}

// AccessLog emits a structured access event for every /api/v1/ request after
// the handler has run.
func AccessLog(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !strings.HasPrefix(path, apiPrefix) {
				return next(c)
			}

			err := next(c)

			entry := accessEntry(c, err)
			logger.Info().
				Str("type", "phi_access").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("user_name", entry.UserName).
				Strs("roles", entry.Roles).
				Str("resource", entry.Resource).
				Str("patient_ref", entry.PatientRef).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.RemoteIP).
				Int("status", entry.StatusCode).
				Msg("access")

			return err
		}
	}
}

func accessEntry(c echo.Context, err error) AccessEntry {
	req := c.Request()
	status := c.Response().Status
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
	}
	id, _ := auth.IdentityFromContext(req.Context())
	return AccessEntry{
		RequestID:  RequestIDFrom(c),
		UserID:     id.Subject,
		UserName:   id.DisplayName(),
		Roles:      id.Roles,
		Resource:   resourceOf(req.URL.Path),
		PatientRef: patientRefOf(req.URL.Path),
		Action:     actionOf(req.Method, req.URL.Path),
		Method:     req.Method,
		Path:       req.URL.Path,
		RemoteIP:   c.RealIP(),
		UserAgent:  req.UserAgent(),
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	}
}

// actionOf maps a request onto read, create, update, delete or export.
func actionOf(method, path string) string {
	if strings.HasSuffix(path, ".csv") {
		return "export"
	}
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceOf returns the first path segment after /api/v1/.
//
//	/api/v1/patients/123/status -> patients
//	/api/v1/export.csv          -> export.csv
func resourceOf(path string) string {
	rest := strings.TrimPrefix(path, apiPrefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}

// patientRefOf returns the record id from /api/v1/patients/<uuid>[/...].
func patientRefOf(path string) string {
	rest, ok := strings.CutPrefix(path, apiPrefix+"patients/")
	if !ok {
		return ""
	}
	seg, _, _ := strings.Cut(rest, "/")
	if _, err := uuid.Parse(seg); err != nil {
		return ""
	}
	return seg
}
