package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutionContext_roundTrip(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("tenant", "acme")
	ctx.Set("request", 7)

	clone := ctx.Copy()
	require.Equal(t, ctx.Keys(), clone.Keys())
	for _, k := range ctx.Keys() {
		want, _ := ctx.Get(k)
		got, ok := clone.Get(k)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestExecutionContext_copyIsIndependent(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("k", 1)

	clone := ctx.Copy()
	ctx.Set("k", 2)
	ctx.Set("extra", true)

	v, _ := clone.Get("k")
	require.Equal(t, 1, v)
	require.Equal(t, 1, clone.Count())
}

func TestExecutionContext_reset(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("a", 1)
	ctx.Set("b", 2)
	require.True(t, ctx.HasContext())

	ctx.Reset()
	require.False(t, ctx.HasContext())
	require.Zero(t, ctx.Count())
	_, ok := ctx.Get("a")
	require.False(t, ok)
}

func TestExecutionContext_keyOrderPreserved(t *testing.T) {
	ctx := NewExecutionContext()
	ctx.Set("z", 1)
	ctx.Set("a", 2)
	ctx.Set("m", 3)
	ctx.Set("z", 4) // overwrite keeps position

	require.Equal(t, []string{"z", "a", "m"}, ctx.Keys())
}

func TestEmptyExecutionContext_dropsMutations(t *testing.T) {
	e := EmptyExecutionContext()
	e.Set("k", 1)

	require.False(t, e.HasContext())
	require.Zero(t, e.Count())
	_, ok := e.Get("k")
	require.False(t, ok)

	// copy and propagate are valid on the empty context
	require.Equal(t, e, e.Copy())
	e.Propagate()
}

func TestExecutionContext_propagateToCollaborators(t *testing.T) {
	s := newTestStage(t)

	collab, err := s.ActorFor(counterProtocol())
	require.NoError(t, err)

	ctx := NewExecutionContext()
	ctx.Set("tenant", "acme")
	ctx.Collaborators(collab)

	ctx.Propagate()

	v, ok := collab.ExecutionContext().Get("tenant")
	require.True(t, ok)
	require.Equal(t, "acme", v)

	// propagation installs a shallow copy, not the live map
	ctx.Set("tenant", "other")
	v, _ = collab.ExecutionContext().Get("tenant")
	require.Equal(t, "acme", v)
}
