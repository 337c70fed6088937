package httpapi

import (
	"context"
	"strings"
	"time"
)

const defaultMaxBodyBytes int64 = 10 << 20

// maxBodyBytes bounds JSON bodies and multipart uploads.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes configures the maximum request body size. Non-positive
// values restore the 10 MiB default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// requestTimeout bounds one generation request. Zero disables it.
var requestTimeout time.Duration

func SetRequestTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	requestTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// allowedHosts enables the trusted-host check when non-empty.
var allowedHosts []string

// SetAllowedHosts restricts the Host header. Entries may be exact hosts,
// "*.example.com" suffix patterns, or "*" to allow everything.
func SetAllowedHosts(hosts []string) {
	allowedHosts = allowedHosts[:0:0]
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowedHosts = append(allowedHosts, h)
		}
	}
}

// Limiter decides whether a client may make another generation request.
// *ratelimit.FixedWindow implements it.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

var limiter Limiter

// SetRateLimiter installs l on the generation routes; nil disables limiting.
func SetRateLimiter(l Limiter) { limiter = l }

// Version is reported by GET /.
var Version = "1.0.0"
