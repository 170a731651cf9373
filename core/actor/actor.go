package actor

import (
	"log/slog"

	"github.com/codewandler/stage-go/core/address"
	"github.com/codewandler/stage-go/core/scheduler"
)

// Actor is the contract every actor satisfies: the set of lifecycle hooks
// the runtime drives. Embed [BaseActor] to get no-op defaults and override
// only the hooks you need.
//
// Hook failure policy: BeforeStart and Start failures are routed to
// supervision; every other hook logs and continues, so shutdown and restart
// always run to completion.
type Actor interface {
	// BeforeStart runs synchronously before the mailbox accepts messages.
	BeforeStart() error
	// Start is the first queued activity of the actor.
	Start() error
	// BeforeRestart runs on the instance about to be replaced.
	BeforeRestart(err error) error
	// AfterRestart runs on the fresh replacement instance.
	AfterRestart(err error) error
	// BeforeResume runs before a suspended mailbox resumes.
	BeforeResume(err error) error
	// BeforeStop runs first in the stop sequence. It may block.
	BeforeStop() error
	// AfterStop runs last, after the mailbox is closed and the actor is
	// out of the directory.
	AfterStop() error
}

// environmentBinder is how the stage hands a fresh instance its environment.
// BaseActor implements it; instantiators never see it.
type environmentBinder interface {
	bindEnvironment(env *Environment)
}

// BaseActor supplies the default lifecycle hooks and the helpers every actor
// needs: access to its environment, a self-proxy for deferred self-sends,
// and child creation. User actors embed it.
type BaseActor struct {
	env *Environment
}

func (b *BaseActor) bindEnvironment(env *Environment) { b.env = env }

// Environment returns the actor's runtime context.
func (b *BaseActor) Environment() *Environment { return b.env }

// Logger returns the actor's logger, pre-tagged with address and type.
func (b *BaseActor) Logger() *slog.Logger { return b.env.Logger() }

// Address returns the actor's address.
func (b *BaseActor) Address() address.Address { return b.env.Address() }

// Definition returns the definition the actor was created from.
func (b *BaseActor) Definition() Definition { return b.env.Definition() }

// Stage returns the owning stage.
func (b *BaseActor) Stage() *Stage { return b.env.Stage() }

// Scheduler returns the stage's background-task scheduler.
func (b *BaseActor) Scheduler() *scheduler.Scheduler { return b.env.Stage().Scheduler() }

// ExecutionContext returns the actor's own declarative context, attached to
// its outgoing invocations.
func (b *BaseActor) ExecutionContext() ExecutionContext { return b.env.ExecutionContext() }

// MessageContext returns the execution-context snapshot of the invocation
// currently being delivered. Outside a delivery frame it is the empty
// context.
func (b *BaseActor) MessageContext() ExecutionContext { return b.env.MessageContext() }

// SelfAs returns a proxy wired to the actor's own mailbox, for deferred
// self-sends. A self-sent invocation is delivered strictly after the current
// delivery frame ends.
func (b *BaseActor) SelfAs() *Proxy {
	return b.env.stage.ActorProxyFor(b.env.Actor(), b.env.mailbox)
}

// ChildActorFor creates a child of this actor. The child's parent is this
// actor's proxy; its supervisor defaults to this actor's supervisor name
// when no [WithSupervisor] option overrides it.
func (b *BaseActor) ChildActorFor(p Protocol, opts ...SpawnOption) (*Proxy, error) {
	cfg := spawnConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.supervisorName == "" {
		opts = append(opts, WithSupervisor(b.env.supervisorName))
	}
	opts = append(opts, WithParent(b.env.self))
	return b.env.stage.ActorFor(p, opts...)
}

// Supervisor returns this actor's own supervisor. For an actor that is
// itself a registered supervisor, this is its escalation target.
func (b *BaseActor) Supervisor() Supervisor { return b.env.Supervisor() }

// Default hooks: no-ops.

func (b *BaseActor) BeforeStart() error            { return nil }
func (b *BaseActor) Start() error                  { return nil }
func (b *BaseActor) BeforeRestart(err error) error { return nil }
func (b *BaseActor) AfterRestart(err error) error  { return nil }
func (b *BaseActor) BeforeResume(err error) error  { return nil }
func (b *BaseActor) BeforeStop() error             { return nil }
func (b *BaseActor) AfterStop() error              { return nil }

var _ Actor = (*BaseActor)(nil)
