package httpapi

import (
	"context"
	"net/http"
)

// serveCtx is the serve command's lifetime. It is canceled on SIGINT/SIGTERM
// and after DELETE /server, so in-flight /prompt calls stop waiting on a
// llama-server that is being torn down.
var serveCtx = context.Background()

// SetBaseContext ties prompt handling to the serve command's lifetime.
// A nil ctx resets it to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serveCtx = ctx
}

// promptContext derives the context for one /prompt call. It ends when the
// client goes away, when serving stops, or after the configured prompt
// timeout, whichever comes first.
func promptContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(serveCtx, cancel)
	if promptTimeout <= 0 {
		return ctx, func() { stop(); cancel() }
	}
	tctx, tcancel := context.WithTimeout(ctx, promptTimeout)
	return tctx, func() { tcancel(); stop(); cancel() }
}

// abandoned reports whether nobody is left to receive a /prompt response.
func abandoned(r *http.Request) bool {
	return r.Context().Err() != nil || serveCtx.Err() != nil
}
