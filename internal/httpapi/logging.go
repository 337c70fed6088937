package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "http").Logger() }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return LevelOff
	case "error":
		return LevelError
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("NIGHTINGALE_HTTP_LOG_LEVEL"))

// requestLogLevel applies the ?log= or X-Log-Level override. A request may
// only lower verbosity below the server default, never raise it.
func requestLogLevel(r *http.Request) LogLevel {
	v := r.URL.Query().Get("log")
	if v == "" {
		v = r.Header.Get("X-Log-Level")
	}
	if v == "" {
		return defaultLogLevel
	}
	return min(parseLevel(v), defaultLogLevel)
}

// logRequestEnd records the outcome of one generation request. Errors are
// logged from LevelError, successes from LevelInfo; LevelDebug adds the
// model output.
func logRequestEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error, output string) {
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	ev := zlog.Info()
	if err != nil {
		ev = zlog.Warn().Err(err)
		if status >= http.StatusInternalServerError {
			ev = zlog.Error().Err(err)
		}
	}
	ev = ev.Str("path", r.URL.Path).Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if lvl >= LevelDebug && output != "" {
		ev = ev.Str("output", output)
	}
	ev.Msg("request end")
}
