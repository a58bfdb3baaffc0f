package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one resource. It receives a context bounded by the
// handler's teardown timeout.
type Hook func(context.Context) error

// Handler waits for a termination signal and unwinds registered hooks.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	stack []Hook

	done chan struct{}
}

// NewHandler creates a handler whose hooks share one teardown timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook. Hooks run in reverse registration order,
// so registering in startup order tears down dependents first.
func (h *Handler) OnShutdown(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = append(h.stack, hook)
}

// Wait blocks until SIGINT or SIGTERM, then unwinds the hook stack.
// Every hook runs even when earlier ones fail; the last error wins.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	signal.Stop(sigCh)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	stack := make([]Hook, len(h.stack))
	copy(stack, h.stack)
	h.mu.Unlock()

	var lastErr error
	for i := len(stack) - 1; i >= 0; i-- {
		if err := stack[i](ctx); err != nil {
			lastErr = err
		}
	}

	close(h.done)
	return lastErr
}

// Done closes once the hook stack has fully unwound.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
