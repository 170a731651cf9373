package actor

import (
	"context"
	"testing"
)

// tCtx is a stand-in for testing.T.Context (Go 1.24+) on older toolchains:
// it returns a context canceled when the test completes.
func tCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
