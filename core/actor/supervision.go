package actor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/codewandler/stage-go/core/address"
)

// Directive is a supervisor's decision for a failed actor.
type Directive int

const (
	// DirectiveResume keeps the instance and resumes its mailbox.
	DirectiveResume Directive = iota
	// DirectiveRestart replaces the instance, then resumes the mailbox.
	DirectiveRestart
	// DirectiveStop stops the actor and, recursively, its children.
	DirectiveStop
	// DirectiveEscalate forwards the failure to the supervisor's own
	// supervisor.
	DirectiveEscalate
)

func (d Directive) String() string {
	switch d {
	case DirectiveResume:
		return "resume"
	case DirectiveRestart:
		return "restart"
	case DirectiveStop:
		return "stop"
	case DirectiveEscalate:
		return "escalate"
	default:
		return fmt.Sprintf("directive(%d)", int(d))
	}
}

// Scope selects whether a directive applies to the failed actor alone or to
// it and its siblings, the co-children of the same parent.
type Scope int

const (
	ScopeOne Scope = iota
	ScopeAll
)

// Strategy bounds how often a supervisor restarts within a rolling window.
// Intensity < 0 means unlimited. A restart beyond the allowance is coerced
// into an escalation.
type Strategy struct {
	Intensity int
	Period    time.Duration
	Scope     Scope
}

// ForeverStrategy never exhausts: restart without limit.
var ForeverStrategy = Strategy{Intensity: -1, Period: 0, Scope: ScopeOne}

// ZeroStrategy allows no restarts at all.
var ZeroStrategy = Strategy{Intensity: 0, Period: 0, Scope: ScopeOne}

// Supervisor decides how a failed actor recovers. Named supervisors are
// actors that additionally implement this contract; the runtime also
// accepts plain (non-actor) implementations, which is how the root
// hierarchy is bootstrapped.
type Supervisor interface {
	// Inform delivers a failure. The implementation applies a directive
	// via the supervised handle.
	Inform(err error, supervised *Supervised)
	// Strategy returns the supervisor's restart allowance.
	Strategy() Strategy
	// Supervisor returns the escalation target, one level up.
	Supervisor() Supervisor
}

// Supervised is the transient view of one failure handed to a supervisor:
// the failed actor, the error, and the execution-context snapshot that was
// live when the failing invocation began delivery. It is not stored.
type Supervised struct {
	env     *Environment
	err     error
	ctx     ExecutionContext
	handler Supervisor
}

func newSupervised(env *Environment, err error) *Supervised {
	return &Supervised{
		env: env,
		err: err,
		ctx: env.MessageContext(),
	}
}

// Actor returns the failed instance.
func (s *Supervised) Actor() Actor { return s.env.Actor() }

// Address returns the failed actor's address.
func (s *Supervised) Address() address.Address { return s.env.Address() }

// Definition returns the failed actor's definition.
func (s *Supervised) Definition() Definition { return s.env.Definition() }

// Error returns the failure.
func (s *Supervised) Error() error { return s.err }

// ExecutionContext returns the request-scoped snapshot captured at failure
// time. It stays readable after the delivery frame has exited.
func (s *Supervised) ExecutionContext() ExecutionContext { return s.ctx }

// Apply carries out a directive under the given strategy, expanding scope
// to siblings when the strategy says so.
func (s *Supervised) Apply(d Directive, strategy Strategy) {
	targets := []*Supervised{s}
	if strategy.Scope == ScopeAll && d != DirectiveEscalate {
		targets = s.withSiblings()
	}

	switch d {
	case DirectiveResume:
		for _, t := range targets {
			t.Resume()
		}
	case DirectiveRestart:
		for _, t := range targets {
			t.RestartWithin(strategy)
		}
	case DirectiveStop:
		for _, t := range targets {
			t.Stop()
		}
	case DirectiveEscalate:
		s.Escalate()
	}
}

// withSiblings returns this failure projected onto the co-children of the
// failing actor's parent, the failing actor included.
func (s *Supervised) withSiblings() []*Supervised {
	parent := s.env.Parent()
	if parent == nil {
		return []*Supervised{s}
	}
	siblings := parent.env.Children()
	out := make([]*Supervised, 0, len(siblings))
	for _, sib := range siblings {
		if sib.Address().Equals(s.env.address) {
			out = append(out, s)
			continue
		}
		out = append(out, &Supervised{env: sib.env, err: s.err, ctx: s.ctx, handler: s.handler})
	}
	return out
}

// Resume calls before_resume on the instance (log-and-continue) and resumes
// the mailbox, preserving state.
func (s *Supervised) Resume() {
	a := s.env.Actor()
	_ = s.env.runHook("before_resume", func() error { return a.BeforeResume(s.err) })
	s.env.setState(Running)
	s.env.mailbox.Resume()
}

// RestartWithin restarts the actor if the strategy's intensity allows
// another attempt within its period; otherwise the failure escalates. On
// restart failure the mailbox still resumes — the next bad message
// re-triggers supervision.
func (s *Supervised) RestartWithin(strategy Strategy) {
	if !s.env.recordRestart(strategy.Intensity, strategy.Period) {
		s.env.log.Warn("restart intensity exceeded, escalating",
			slog.Int("intensity", strategy.Intensity),
			slog.Duration("period", strategy.Period),
		)
		s.Escalate()
		return
	}

	if err := s.env.restart(s.err); err != nil {
		s.env.log.Error("restart failed", slog.Any("error", err))
	}
	s.env.mailbox.Resume()
}

// Stop stops the failed actor; its mailbox closes and its children stop
// recursively.
func (s *Supervised) Stop() *Completion {
	return s.env.stop(0)
}

// Escalate forwards the same failure one supervisor up. The original caller
// still observes the original error on its completion.
func (s *Supervised) Escalate() {
	if s.handler == nil {
		s.env.log.Error("cannot escalate without a handling supervisor", slog.Any("error", s.err))
		return
	}
	next := s.handler.Supervisor()
	s.env.stage.informSupervisor(next, s)
}

// actorSupervisor adapts an actor implementing the Supervisor contract so
// that Inform is delivered through its own mailbox, while Strategy and
// Supervisor answer synchronously like the proxy metadata set.
type actorSupervisor struct {
	p *Proxy
}

// NewActorSupervisor wraps an actor-backed supervisor for registration via
// [Stage.RegisterSupervisor]. The proxied actor must implement [Supervisor].
func NewActorSupervisor(p *Proxy) Supervisor {
	return &actorSupervisor{p: p}
}

func (a *actorSupervisor) Inform(err error, supervised *Supervised) {
	a.p.invokeNoRoute(
		Representation("inform", err, supervised.Address()),
		func(act Actor) (any, error) {
			sup, ok := act.(Supervisor)
			if !ok {
				return nil, fmt.Errorf("actor %s does not implement Supervisor", a.p)
			}
			sup.Inform(err, supervised)
			return nil, nil
		},
	)
}

func (a *actorSupervisor) Strategy() Strategy {
	if sup, ok := a.p.env.Actor().(Supervisor); ok {
		return sup.Strategy()
	}
	return ZeroStrategy
}

func (a *actorSupervisor) Supervisor() Supervisor {
	return a.p.env.Supervisor()
}

var _ Supervisor = (*actorSupervisor)(nil)
