package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// BaseURL returns the base URL for the given HTTP request context.
// It takes into account that the app may be exposed by a reverse-proxy under
// a different protocol, host and path prefix (X-Forwarded-Prefix).
// The returned URL is guaranteed to end with `/`.
func BaseURL(c echo.Context) string {
	req := c.Request()

	scheme := "http"
	if req.Header.Get("X-Forwarded-Proto") == "https" || req.TLS != nil {
		scheme = "https"
	}

	host := req.Host
	if forwardedHost := req.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	prefix := strings.Trim(req.Header.Get("X-Forwarded-Prefix"), "/")
	if prefix == "" {
		return scheme + "://" + host + "/"
	}
	return scheme + "://" + host + "/" + prefix + "/"
}
