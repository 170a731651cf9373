// Package reflector provides type reflection utilities with caching.
// The runtime uses it to derive protocol type names from Go types.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the type cache. The number of actor protocol types in
// a program is small, so the limit is rarely hit; when it is, the cache is
// cleared and rebuilt.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds metadata about a reflected type.
type TypeInfo struct {
	Name  string       // Fully qualified name: "pkg/path.TypeName"
	Short string       // Bare type name: "TypeName"
	Type  reflect.Type // The underlying reflect.Type
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeInfoForType returns TypeInfo for the given reflect.Type. For pointer
// types, returns info about the element type. Results are cached; safe for
// concurrent use.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{
		Name:  t.PkgPath() + "." + t.Name(),
		Short: t.Name(),
		Type:  t,
	}

	muCache.Lock()
	if existing, ok := cache[t]; ok {
		muCache.Unlock()
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	muCache.Unlock()

	return ti
}
