package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codewandler/stage-go/core/address"
	"github.com/codewandler/stage-go/core/scheduler"
)

// LifeCycle is the actor's coarse state: Starting → Running ↔ Suspended →
// Stopping → Stopped, with Restarting as a transient between Running states.
// Stopped is terminal.
type LifeCycle int32

const (
	Starting LifeCycle = iota
	Running
	Suspended
	Restarting
	Stopping
	Stopped
)

func (s LifeCycle) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Restarting:
		return "restarting"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("life-cycle(%d)", int32(s))
	}
}

// ErrStopTimeout resolves a stop completion whose deadline elapsed before
// the stop sequence finished. The sequence still runs to completion in the
// background.
var ErrStopTimeout = errors.New("stop timed out")

// Environment is the per-actor runtime context: address, definition, parent
// and children handles, mailbox, logger, supervisor name, and the
// execution-context slots. Each actor owns exactly one environment; each
// environment owns exactly one mailbox.
type Environment struct {
	stage          *Stage
	address        address.Address
	definition     Definition
	parent         *Proxy
	mailbox        *Mailbox
	log            *slog.Logger
	supervisorName string
	protocol       Protocol
	self           *Proxy

	// protected marks the ultimate root, which cannot be stopped outside
	// stage shutdown.
	protected bool

	state atomic.Int32

	mu             sync.Mutex
	actor          Actor
	children       []*Proxy // append-only at create time, sparse on stop
	supervisor     Supervisor
	execCtx        ExecutionContext
	msgCtx         ExecutionContext
	restartTimes   []time.Time
	stopCompletion *Completion
}

// Stage returns the owning stage.
func (e *Environment) Stage() *Stage { return e.stage }

// Address returns the actor's address.
func (e *Environment) Address() address.Address { return e.address }

// Definition returns the definition the actor was created from.
func (e *Environment) Definition() Definition { return e.definition }

// Parent returns the parent handle; nil only for the ultimate root.
func (e *Environment) Parent() *Proxy { return e.parent }

// Mailbox returns the actor's mailbox.
func (e *Environment) Mailbox() *Mailbox { return e.mailbox }

// Logger returns the actor's logger.
func (e *Environment) Logger() *slog.Logger { return e.log }

// SupervisorName returns the name the actor's supervisor resolves under.
func (e *Environment) SupervisorName() string { return e.supervisorName }

// LifeCycle returns the current state.
func (e *Environment) LifeCycle() LifeCycle { return LifeCycle(e.state.Load()) }

// IsStopped reports whether the actor is stopping or has stopped.
func (e *Environment) IsStopped() bool {
	s := e.LifeCycle()
	return s == Stopping || s == Stopped
}

func (e *Environment) setState(s LifeCycle) { e.state.Store(int32(s)) }

// Actor returns the current instance; restart swaps it.
func (e *Environment) Actor() Actor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actor
}

func (e *Environment) setActor(a Actor) {
	e.mu.Lock()
	e.actor = a
	e.mu.Unlock()
}

// ExecutionContext returns the actor's own declarative context.
func (e *Environment) ExecutionContext() ExecutionContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execCtx
}

// MessageContext returns the snapshot of the currently-delivered invocation,
// or the empty context outside a delivery frame.
func (e *Environment) MessageContext() ExecutionContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.msgCtx
}

func (e *Environment) setMessageContext(ctx ExecutionContext) {
	e.mu.Lock()
	e.msgCtx = ctx
	e.mu.Unlock()
}

func (e *Environment) clearMessageContext() {
	e.setMessageContext(EmptyExecutionContext())
}

// Children returns the live child handles in creation order.
func (e *Environment) Children() []*Proxy {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Proxy, 0, len(e.children))
	for _, c := range e.children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (e *Environment) addChild(p *Proxy) {
	e.mu.Lock()
	e.children = append(e.children, p)
	e.mu.Unlock()
}

// removeChild nils the slot rather than compacting, keeping creation order
// stable for the remaining children.
func (e *Environment) removeChild(addr address.Address) {
	e.mu.Lock()
	for i, c := range e.children {
		if c != nil && c.Address().Equals(addr) {
			e.children[i] = nil
			break
		}
	}
	e.mu.Unlock()
}

// Supervisor resolves the actor's supervisor by name, caching the result.
// The cache is invalidated on restart so a re-registered name is picked up.
func (e *Environment) Supervisor() Supervisor {
	e.mu.Lock()
	if e.supervisor != nil {
		s := e.supervisor
		e.mu.Unlock()
		return s
	}
	e.mu.Unlock()

	s := e.stage.supervisorNamed(e.supervisorName)

	e.mu.Lock()
	e.supervisor = s
	e.mu.Unlock()
	return s
}

func (e *Environment) invalidateSupervisor() {
	e.mu.Lock()
	e.supervisor = nil
	e.mu.Unlock()
}

// recordRestart consults the intensity/period counter. It reports whether a
// restart is still allowed within the rolling window and, if so, records the
// attempt. Negative intensity means unlimited.
func (e *Environment) recordRestart(intensity int, period time.Duration) bool {
	if intensity < 0 {
		return true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if period > 0 {
		kept := e.restartTimes[:0]
		for _, t := range e.restartTimes {
			if now.Sub(t) <= period {
				kept = append(kept, t)
			}
		}
		e.restartTimes = kept
	}

	if len(e.restartTimes) >= intensity {
		return false
	}
	e.restartTimes = append(e.restartTimes, now)
	return true
}

// runHook invokes a lifecycle hook with panic containment, logging failures.
func (e *Environment) runHook(name string, hook func() error) error {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", name, r)
			}
		}()
		return hook()
	}()
	if err != nil {
		e.log.Error("lifecycle hook failed", slog.String("hook", name), slog.Any("error", err))
	}
	return err
}

// restart replaces the actor instance with a fresh one built from the stored
// definition. Address, mailbox queue, children, parent and supervisor name
// are preserved; the mailbox's suspension is lifted by the caller.
func (e *Environment) restart(cause error) error {
	e.setState(Restarting)

	old := e.Actor()
	_ = e.runHook("before_restart", func() error { return old.BeforeRestart(cause) })

	fresh, err := e.protocol.Instantiate(e.definition)
	if err != nil {
		e.setState(Running)
		return fmt.Errorf("failed to re-instantiate %s: %w", e.definition.Type(), err)
	}
	binder, ok := fresh.(environmentBinder)
	if !ok {
		e.setState(Running)
		return fmt.Errorf("%s does not embed BaseActor", e.definition.Type())
	}
	binder.bindEnvironment(e)
	e.setActor(fresh)
	e.invalidateSupervisor()

	_ = e.runHook("after_restart", func() error { return fresh.AfterRestart(cause) })

	e.setState(Running)
	e.stage.metrics.ActorRestarted(e.definition.Type())
	e.log.Info("actor restarted", slog.Any("cause", cause))
	return nil
}

// stop runs the stop sequence: before_stop, children in reverse creation
// order, detach from parent, close mailbox, leave the directory, after_stop.
// Hook and child failures are logged and never abort the sequence. A second
// stop returns the first one's completion. With a timeout > 0, the mailbox
// is force-closed when the deadline elapses and the returned completion
// fails with [ErrStopTimeout] while the sequence finishes in the background.
func (e *Environment) stop(timeout time.Duration) *Completion {
	e.mu.Lock()
	if e.stopCompletion != nil {
		c := e.stopCompletion
		e.mu.Unlock()
		return c
	}
	c := NewCompletion()
	e.stopCompletion = c
	e.mu.Unlock()

	e.setState(Stopping)

	var deadline *scheduler.Task
	if timeout > 0 {
		deadline = e.stage.sched.ScheduleOnce(timeout, func() {
			e.mailbox.Close()
			c.Fail(ErrStopTimeout)
		})
	}

	go e.runStop(c, deadline)
	return c
}

func (e *Environment) runStop(c *Completion, deadline *scheduler.Task) {
	a := e.Actor()
	_ = e.runHook("before_stop", a.BeforeStop)

	// children stop in reverse creation order
	e.mu.Lock()
	children := make([]*Proxy, len(e.children))
	copy(children, e.children)
	e.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		ch := children[i]
		if ch == nil {
			continue
		}
		if _, err := ch.Stop().Await(e.stage.ctx); err != nil {
			e.log.Error("failed to stop child",
				slog.String("child", ch.Address().String()),
				slog.Any("error", err),
			)
		}
	}

	if e.parent != nil {
		e.parent.env.removeChild(e.address)
	}

	e.mailbox.Close()
	e.stage.directory.Remove(e.address)

	_ = e.runHook("after_stop", a.AfterStop)

	e.setState(Stopped)
	e.stage.metrics.ActorStopped(e.definition.Type())
	if deadline != nil {
		deadline.Cancel()
	}
	c.With(nil)
}
