package actor

import (
	"fmt"

	"github.com/codewandler/stage-go/core/address"
	"github.com/codewandler/stage-go/core/reflector"
)

// Definition is the immutable recipe an actor was created from: its type
// name, its address, and the parameters handed to the instantiator. Restart
// re-instantiates from the same definition.
type Definition struct {
	typeName   string
	address    address.Address
	parameters []any
}

// NewDefinition builds a definition. The stage overrides the address at
// spawn time; a caller-supplied one is never used.
func NewDefinition(typeName string, parameters ...any) Definition {
	return Definition{typeName: typeName, parameters: parameters}
}

// Type returns the short type name used to locate supervisors and root
// actors in the directory.
func (d Definition) Type() string { return d.typeName }

// Address returns the actor's address.
func (d Definition) Address() address.Address { return d.address }

// Parameters returns the instantiation parameters.
func (d Definition) Parameters() []any { return d.parameters }

// Parameter returns the i-th parameter, or an error when out of range.
func (d Definition) Parameter(i int) (any, error) {
	if i < 0 || i >= len(d.parameters) {
		return nil, fmt.Errorf("definition %s has no parameter %d", d.typeName, i)
	}
	return d.parameters[i], nil
}

func (d Definition) withAddress(a address.Address) Definition {
	d.address = a
	return d
}

// Protocol describes how to create actors of one type: a short type name
// plus an instantiator producing a fresh instance from a definition.
type Protocol struct {
	// Type is the short name registered in the directory's type index.
	Type string
	// Instantiate returns a fresh, unstarted actor instance.
	Instantiate func(def Definition) (Actor, error)
}

// ProtocolFor derives the type name from T and pairs it with the given
// instantiator.
func ProtocolFor[T Actor](instantiate func(def Definition) (Actor, error)) Protocol {
	return Protocol{
		Type:        reflector.TypeInfoFor[T]().Short,
		Instantiate: instantiate,
	}
}
