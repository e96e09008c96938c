package context

import (
	"context"
	"testing"
	"time"
)

// Margin before the deadline of a test, left for cleanups.
const Margin = time.Second

// WithTest returns a context which is done Margin before the deadline of t,
// and is canceled at the end of t.
func WithTest(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if deadline, ok := t.Deadline(); ok {
		ctx, cancel = context.WithDeadline(ctx, deadline.Add(-Margin))
	}
	t.Cleanup(cancel)
	return ctx
}
