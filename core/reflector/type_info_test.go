package reflector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleActor struct{}

func TestTypeInfoFor(t *testing.T) {
	ti := TypeInfoFor[sampleActor]()
	require.Equal(t, "sampleActor", ti.Short)
	require.Contains(t, ti.Name, "core/reflector.sampleActor")
}

func TestTypeInfoOf_pointerUnwrapped(t *testing.T) {
	byValue := TypeInfoOf(sampleActor{})
	byPointer := TypeInfoOf(&sampleActor{})
	require.Equal(t, byValue, byPointer)
}

func TestTypeInfo_cached(t *testing.T) {
	a := TypeInfoFor[sampleActor]()
	b := TypeInfoFor[sampleActor]()
	require.Equal(t, a, b)
}
