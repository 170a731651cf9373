package actor

import (
	"log/slog"
)

// Reserved type names. User code must not reuse them.
const (
	// PrivateRootName is the ultimate root: stops failing children, no
	// retry, cannot be stopped outside stage shutdown.
	PrivateRootName = "__privateRoot"
	// PublicRootName is the default parent of user actors: restarts
	// failing children forever.
	PublicRootName = "__publicRoot"
	// DefaultSupervisorName resolves to the public root.
	DefaultSupervisorName = "default"
)

func reservedTypeName(name string) bool {
	switch name {
	case PrivateRootName, PublicRootName, DefaultSupervisorName:
		return true
	}
	return false
}

// bootstrapSupervisor is the non-actor fallback that backs the private root
// during root initialization and whenever name resolution comes up empty.
// Like the private root itself, it only ever stops.
type bootstrapSupervisor struct {
	log *slog.Logger
}

func (b *bootstrapSupervisor) Inform(err error, supervised *Supervised) {
	b.log.Error("bootstrap supervisor stopping failed actor",
		slog.String("actor", supervised.Address().String()),
		slog.Any("error", err),
	)
	supervised.Stop()
}

func (b *bootstrapSupervisor) Strategy() Strategy { return ZeroStrategy }

// Supervisor returns itself: there is nothing above the bootstrap.
func (b *bootstrapSupervisor) Supervisor() Supervisor { return b }

// privateRoot is the ultimate ancestor. It supervises the public root and
// itself; its only directive is Stop.
type privateRoot struct {
	BaseActor
}

func privateRootProtocol() Protocol {
	return Protocol{
		Type: PrivateRootName,
		Instantiate: func(def Definition) (Actor, error) {
			return &privateRoot{}, nil
		},
	}
}

func (r *privateRoot) Inform(err error, supervised *Supervised) {
	r.Logger().Error("private root stopping failed actor",
		slog.String("actor", supervised.Address().String()),
		slog.Any("error", err),
	)
	supervised.Apply(DirectiveStop, r.Strategy())
}

func (r *privateRoot) Strategy() Strategy { return ZeroStrategy }

// publicRoot is the default parent of user actors. It restarts failing
// children without limit.
type publicRoot struct {
	BaseActor
}

func publicRootProtocol() Protocol {
	return Protocol{
		Type: PublicRootName,
		Instantiate: func(def Definition) (Actor, error) {
			return &publicRoot{}, nil
		},
	}
}

func (r *publicRoot) Inform(err error, supervised *Supervised) {
	r.Logger().Warn("public root restarting failed actor",
		slog.String("actor", supervised.Address().String()),
		slog.Any("error", err),
	)
	supervised.Apply(DirectiveRestart, r.Strategy())
}

func (r *publicRoot) Strategy() Strategy { return ForeverStrategy }

var (
	_ Supervisor = (*bootstrapSupervisor)(nil)
	_ Supervisor = (*privateRoot)(nil)
	_ Supervisor = (*publicRoot)(nil)
)
