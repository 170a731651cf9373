package actor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/codewandler/stage-go/core/address"
	"github.com/codewandler/stage-go/core/reflector"
)

// Proxy is the sole external reference to an actor. Calls through a proxy
// become invocations queued on the actor's mailbox; the caller gets a
// completion back. A fixed set of metadata operations — and nothing else —
// answers synchronously without enqueueing: Address, Definition,
// ExecutionContext, Logger, LifeCycle, IsStopped, Stage, Type, Equals, Hash
// and String.
type Proxy struct {
	env     *Environment
	mailbox *Mailbox
}

// === synchronous metadata operations (the normative set) ===

// Address returns the actor's address.
func (p *Proxy) Address() address.Address { return p.env.Address() }

// Definition returns the definition the actor was created from.
func (p *Proxy) Definition() Definition { return p.env.Definition() }

// ExecutionContext returns the actor's own declarative context.
func (p *Proxy) ExecutionContext() ExecutionContext { return p.env.ExecutionContext() }

// Logger returns the actor's logger.
func (p *Proxy) Logger() *slog.Logger { return p.env.Logger() }

// LifeCycle returns the actor's current state.
func (p *Proxy) LifeCycle() LifeCycle { return p.env.LifeCycle() }

// IsStopped reports whether the actor is stopping or has stopped.
func (p *Proxy) IsStopped() bool { return p.env.IsStopped() }

// Stage returns the owning stage.
func (p *Proxy) Stage() *Stage { return p.env.Stage() }

// Type returns the actor's short type name.
func (p *Proxy) Type() string { return p.env.Definition().Type() }

// Equals compares by address.
func (p *Proxy) Equals(other *Proxy) bool {
	return other != nil && p.Address().Equals(other.Address())
}

// Hash returns the address hash.
func (p *Proxy) Hash() uint32 { return p.Address().Hash() }

func (p *Proxy) String() string {
	return fmt.Sprintf("%s(%s)", p.Type(), p.Address())
}

// === asynchronous dispatch ===

// Invoke queues a closure-carrying invocation on the actor's mailbox and
// returns its completion. The actor's execution context is snapshotted at
// this moment — supervisors informed of a later failure read the keys
// present now, not at delivery.
func (p *Proxy) Invoke(representation string, closure func(a Actor) (any, error)) *Completion {
	return p.send(representation, closure, false)
}

func (p *Proxy) invokeNoRoute(representation string, closure func(a Actor) (any, error)) *Completion {
	return p.send(representation, closure, true)
}

func (p *Proxy) send(representation string, closure func(a Actor) (any, error), noRoute bool) *Completion {
	c := NewCompletion()
	p.mailbox.Send(&Invocation{
		target:         p.env,
		closure:        closure,
		representation: representation,
		completion:     c,
		snapshot:       p.snapshotContext(),
		noRoute:        noRoute,
	})
	return c
}

// snapshotContext copies the actor's current execution context, or picks the
// empty context when it holds no keys.
func (p *Proxy) snapshotContext() ExecutionContext {
	ctx := p.env.ExecutionContext()
	if ctx.HasContext() {
		return ctx.Copy()
	}
	return EmptyExecutionContext()
}

// Stop begins the actor's stop sequence and returns its completion. Stopping
// an already-stopped actor is a no-op resolving successfully.
func (p *Proxy) Stop() *Completion {
	return p.stopWithin(0)
}

// StopWithin is Stop with a deadline: when it elapses first, the mailbox is
// force-closed and the returned completion fails with [ErrStopTimeout] while
// the stop sequence finishes in the background.
func (p *Proxy) StopWithin(timeout time.Duration) *Completion {
	return p.stopWithin(timeout)
}

func (p *Proxy) stopWithin(timeout time.Duration) *Completion {
	if p.env.protected && !p.env.stage.closing.Load() {
		p.env.log.Warn("refusing to stop the private root")
		c := NewCompletion()
		c.With(nil)
		return c
	}
	return p.env.stop(timeout)
}

// === typed dispatch helpers ===

// Ask queues a request-style invocation and returns a typed answer. The
// closure runs against the instance live at delivery time, so a restarted
// actor answers with its replacement state.
func Ask[A Actor, R any](p *Proxy, representation string, fn func(a A) (R, error)) *Answer[R] {
	c := p.Invoke(representation, func(act Actor) (any, error) {
		a, ok := act.(A)
		if !ok {
			return nil, fmt.Errorf("actor %s is not %s", p, reflector.TypeInfoFor[A]().Short)
		}
		return fn(a)
	})
	return &Answer[R]{c: c}
}

// Tell queues a fire-and-forget invocation. The completion still reports
// delivery errors and sentinels.
func Tell[A Actor](p *Proxy, representation string, fn func(a A) error) *Completion {
	return p.Invoke(representation, func(act Actor) (any, error) {
		a, ok := act.(A)
		if !ok {
			return nil, fmt.Errorf("actor %s is not %s", p, reflector.TypeInfoFor[A]().Short)
		}
		return nil, fn(a)
	})
}
