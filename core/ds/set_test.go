package ds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_orderPreserved(t *testing.T) {
	s := NewSet("c", "a", "b")
	require.Equal(t, []string{"c", "a", "b"}, s.Values())

	s.Add("a") // duplicate, no effect
	require.Equal(t, 3, s.Len())

	s.Remove("a")
	require.Equal(t, []string{"c", "b"}, s.Values())
	require.False(t, s.Contains("a"))
}

func TestSet_copyIndependent(t *testing.T) {
	s := NewSet(1, 2, 3)
	c := s.Copy()

	c.Add(4)
	s.Remove(1)

	require.Equal(t, []int{2, 3}, s.Values())
	require.Equal(t, []int{1, 2, 3, 4}, c.Values())
}

func TestSet_clear(t *testing.T) {
	s := NewSet("x", "y")
	s.Clear()
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.Values())

	s.Add("z")
	require.Equal(t, []string{"z"}, s.Values())
}
