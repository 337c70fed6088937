package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is canceled on shutdown so in-flight generations stop too.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// requestContext derives the context for one generation: canceled when the
// client goes away, when the server shuts down, or after requestTimeout.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(serverBaseCtx, cancel)
	if requestTimeout <= 0 {
		return ctx, func() { stop(); cancel() }
	}
	tctx, tcancel := context.WithTimeout(ctx, requestTimeout)
	return tctx, func() { tcancel(); stop(); cancel() }
}
