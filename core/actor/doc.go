// Package actor provides an in-process actor-model runtime: message-driven
// units with private state, one-at-a-time delivery through a per-actor
// mailbox, and a supervision hierarchy that decides how failures recover.
//
// # Creating Actors
//
// Actors embed [BaseActor], override the lifecycle hooks they need, and are
// created through a [Stage] from a [Protocol]:
//
//	type Counter struct {
//	    actor.BaseActor
//	    count int
//	}
//
//	func (c *Counter) Increment() { c.count++ }
//	func (c *Counter) Count() int { return c.count }
//
//	st := actor.New(actor.Options{})
//	counter, err := st.ActorFor(actor.ProtocolFor[*Counter](
//	    func(def actor.Definition) (actor.Actor, error) {
//	        return &Counter{}, nil
//	    },
//	))
//
// The returned [Proxy] is the only way external code interacts with the
// actor; there is no direct method access.
//
// # Sending Messages
//
// Use [Ask] for request-response and [Tell] for fire-and-forget. Both queue
// a closure-carrying [Invocation] on the actor's mailbox and return
// immediately; the closure runs inside the actor's delivery frame, strictly
// serialized with every other invocation on the same mailbox.
//
//	actor.Tell(counter, actor.Representation("increment"), func(c *Counter) error {
//	    c.Increment()
//	    return nil
//	})
//
//	n, err := actor.Ask(counter, actor.Representation("count"), func(c *Counter) (int, error) {
//	    return c.Count(), nil
//	}).Await(ctx)
//
// # Self-Sends
//
// An actor obtains a proxy to its own mailbox via [BaseActor.SelfAs]. A
// self-sent invocation is delivered strictly after the current delivery
// frame ends, which is how serialized state transitions are expressed.
//
// # Supervision
//
// A failed delivery suspends the actor's mailbox and routes the failure to
// its supervisor, which applies one of the directives Resume, Restart, Stop
// or Escalate. Restart frequency is bounded by the supervisor's
// [Strategy]; exceeding it escalates instead. Two fixed roots anchor the
// hierarchy: the private root only ever stops, the public root — default
// parent of all user actors — restarts forever.
//
// Named supervisors are actors that also implement [Supervisor], registered
// with [Stage.RegisterSupervisor] and referenced by name at spawn time via
// [WithSupervisor].
//
// # Mailboxes
//
// Mailboxes are unbounded by default. A bounded mailbox created with
// [Stage.NewMailbox] applies one of three overflow policies at capacity:
// DropOldest, DropNewest or Reject. Undeliverable invocations resolve with
// a non-error [Sentinel] and are reported to the stage's dead-letter sink.
//
// # Shutdown
//
// [Stage.Close] stops everything in three phases: user actors, registered
// supervisors, then the roots.
package actor
