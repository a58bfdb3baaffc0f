// Package shutdown coordinates graceful teardown of the server's
// long-lived resources: the HTTP listener, the auto-backup loops, the
// backup cache, and the document store.
//
// Hooks are registered in startup order and unwound in reverse on
// SIGINT or SIGTERM, under one shared timeout:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return store.Close() })
//	h.OnShutdown(func(ctx context.Context) error { return server.Shutdown(ctx) })
//	err := h.Wait()
package shutdown
