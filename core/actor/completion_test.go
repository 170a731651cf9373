package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompletion_resolvesOnce(t *testing.T) {
	c := NewCompletion()
	require.False(t, c.IsResolved())

	c.With(42)
	c.With(43)             // no-op
	c.Fail(errors.New("")) // no-op

	v, err := c.Await(tCtx(t))
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, c.IsResolved())
}

func TestCompletion_fail(t *testing.T) {
	c := NewCompletion()
	boom := errors.New("boom")
	c.Fail(boom)

	_, err := c.Await(tCtx(t))
	require.ErrorIs(t, err, boom)
}

func TestCompletion_awaitHonorsContext(t *testing.T) {
	c := NewCompletion()

	ctx, cancel := context.WithTimeout(tCtx(t), 20*time.Millisecond)
	defer cancel()

	_, err := c.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnswer_sentinelYieldsZero(t *testing.T) {
	c := NewCompletion()
	a := &Answer[int]{c: c}
	c.With(SentinelStopped)

	v, err := a.Await(tCtx(t))
	require.NoError(t, err)
	require.Zero(t, v)

	raw, err := a.Completion().Await(tCtx(t))
	require.NoError(t, err)
	require.Equal(t, SentinelStopped, raw)
}
