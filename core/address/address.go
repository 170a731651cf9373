// Package address provides opaque, globally-unique actor identifiers.
//
// Two factories exist: a time-ordered UUIDv7 factory used by default, and a
// monotonically incrementing integer factory intended for tests where stable,
// readable identifiers matter. Both produce values that are interchangeable
// behind the [Address] interface.
package address

import (
	"hash/fnv"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

type (
	// Address identifies exactly one actor for its whole lifetime.
	// Equality is strictly by value.
	Address interface {
		Equals(other Address) bool
		Hash() uint32
		String() string
	}

	// Factory mints fresh addresses. Implementations must never return the
	// same address twice.
	Factory interface {
		Next() Address
	}
)

// === UUIDv7 (default) ===

type uuidAddress struct {
	id uuid.UUID
}

func (a uuidAddress) Equals(other Address) bool {
	o, ok := other.(uuidAddress)
	return ok && o.id == a.id
}

func (a uuidAddress) Hash() uint32 {
	h := fnv.New32a()
	_, _ = h.Write(a.id[:])
	return h.Sum32()
}

func (a uuidAddress) String() string { return a.id.String() }

type uuidFactory struct{}

func (uuidFactory) Next() Address {
	return uuidAddress{id: uuid.Must(uuid.NewV7())}
}

// NewUUIDFactory returns the default factory producing time-ordered 128-bit
// identifiers (UUIDv7).
func NewUUIDFactory() Factory { return uuidFactory{} }

// === monotonic integer (tests) ===

type intAddress struct {
	n int64
}

func (a intAddress) Equals(other Address) bool {
	o, ok := other.(intAddress)
	return ok && o.n == a.n
}

func (a intAddress) Hash() uint32 { return uint32(a.n) }

func (a intAddress) String() string { return strconv.FormatInt(a.n, 10) }

type intFactory struct {
	next atomic.Int64
}

func (f *intFactory) Next() Address {
	return intAddress{n: f.next.Add(1)}
}

// NewMonotonicFactory returns a factory producing sequential integer
// addresses starting at 1.
func NewMonotonicFactory() Factory { return &intFactory{} }
