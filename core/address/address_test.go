package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonotonicFactory(t *testing.T) {
	f := NewMonotonicFactory()

	a := f.Next()
	b := f.Next()

	require.Equal(t, "1", a.String())
	require.Equal(t, "2", b.String())
	require.True(t, a.Equals(a))
	require.False(t, a.Equals(b))
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestUUIDFactory_unique(t *testing.T) {
	f := NewUUIDFactory()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		a := f.Next()
		_, dup := seen[a.String()]
		require.False(t, dup, "duplicate address %s", a)
		seen[a.String()] = struct{}{}
	}
}

func TestUUIDFactory_equalityByValue(t *testing.T) {
	f := NewUUIDFactory()

	a := f.Next()
	b := f.Next()

	require.True(t, a.Equals(a))
	require.False(t, a.Equals(b))
	require.Equal(t, a.Hash(), a.Hash())
}

func TestFactories_interchangeable(t *testing.T) {
	// addresses from different factories never compare equal
	a := NewMonotonicFactory().Next()
	b := NewUUIDFactory().Next()
	require.False(t, a.Equals(b))
	require.False(t, b.Equals(a))
}
