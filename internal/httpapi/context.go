package httpapi

import (
	"context"
)

// serverBaseCtx is cancelled on daemon shutdown so in-flight generation
// streams stop cooperatively with the process. Background until serve
// installs its signal context.
var serverBaseCtx = context.Background()

// SetBaseContext installs the shutdown context consulted by streaming handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts ties a generation to both the shutdown context and the request
// context: a client disconnect or a SIGTERM each cancel the session. The
// returned cancel func must be called when the handler ends to release the
// watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
