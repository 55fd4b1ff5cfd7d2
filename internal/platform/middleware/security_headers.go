package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the response headers every waitlist response carries.
// HSTS is only sent when hsts is true, i.e. when the service is reached
// over TLS.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	headers := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "0",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "no-referrer",
		"Permissions-Policy":      "camera=(), microphone=(), geolocation=()",
		// Patient data must not land in shared caches.
		"Cache-Control": "no-store",
	}
	if hsts {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for k, v := range headers {
				h.Set(k, v)
			}
			return next(c)
		}
	}
}
