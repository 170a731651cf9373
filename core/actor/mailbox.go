package actor

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// OverflowPolicy decides what happens when a bounded mailbox is at capacity.
type OverflowPolicy int

const (
	// DropOldest displaces the head of the queue to make room.
	DropOldest OverflowPolicy = iota
	// DropNewest discards the incoming invocation.
	DropNewest
	// Reject dead-letters the incoming invocation.
	Reject
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop_oldest"
	case DropNewest:
		return "drop_newest"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("overflow(%d)", int(p))
	}
}

// ParseOverflowPolicy maps a config string to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "drop_oldest":
		return DropOldest, nil
	case "drop_newest":
		return DropNewest, nil
	case "reject", "":
		return Reject, nil
	default:
		return Reject, fmt.Errorf("unknown overflow policy: %q", s)
	}
}

// MailboxOptions configures a mailbox. Zero-value fields get defaults from
// the owning stage when the mailbox is created through [Stage.NewMailbox].
type MailboxOptions struct {
	Logger      *slog.Logger
	DeadLetters *DeadLetters
	Metrics     StageMetrics
	// Capacity bounds the queue; 0 means unbounded.
	Capacity int
	// Overflow is consulted only when Capacity > 0.
	Overflow OverflowPolicy
}

// Mailbox is a per-actor FIFO queue in exactly one of three states: open,
// suspended, or closed. It dispatches invocations one at a time against the
// owning actor; no two invocations on the same mailbox ever run
// concurrently. A delivery that fails suspends the mailbox until the
// supervisor resumes or closes it. Sends to a closed mailbox dead-letter.
type Mailbox struct {
	log         *slog.Logger
	deadLetters *DeadLetters
	metrics     StageMetrics
	capacity    int
	overflow    OverflowPolicy

	mu          sync.Mutex
	queue       []*Invocation
	suspended   bool
	closed      bool
	dispatching bool
	drops       int64
}

// NewMailbox creates an open mailbox. Prefer [Stage.NewMailbox], which fills
// in the stage's dead-letter sink, logger and metrics.
func NewMailbox(opts MailboxOptions) *Mailbox {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopStageMetrics()
	}
	return &Mailbox{
		log:         opts.Logger,
		deadLetters: opts.DeadLetters,
		metrics:     opts.Metrics,
		capacity:    opts.Capacity,
		overflow:    opts.Overflow,
	}
}

// Send enqueues an invocation. On a closed mailbox the invocation
// dead-letters and its completion resolves to [SentinelStopped]. On a full
// bounded mailbox the overflow policy applies. Otherwise the invocation is
// queued and, unless the mailbox is suspended, dispatch is triggered.
func (m *Mailbox) Send(inv *Invocation) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.deadLetter(inv, SentinelStopped)
		return
	}

	if m.capacity > 0 && len(m.queue) >= m.capacity {
		switch m.overflow {
		case DropOldest:
			head := m.queue[0]
			m.queue = append(m.queue[1:], inv)
			m.drops++
			start := m.startDispatchLocked()
			m.mu.Unlock()
			m.metrics.MailboxOverflow(m.overflow.String())
			head.completion.With(SentinelDropped)
			if start {
				go m.run()
			}
			return
		case DropNewest:
			m.drops++
			m.mu.Unlock()
			m.metrics.MailboxOverflow(m.overflow.String())
			inv.completion.With(SentinelDropped)
			return
		case Reject:
			m.drops++
			m.mu.Unlock()
			m.metrics.MailboxOverflow(m.overflow.String())
			m.deadLetter(inv, SentinelMailboxFull)
			return
		}
	}

	m.queue = append(m.queue, inv)
	depth := len(m.queue)
	start := m.startDispatchLocked()
	m.mu.Unlock()

	m.metrics.MailboxDepth(inv.target.address.String(), depth)
	if start {
		go m.run()
	}
}

// startDispatchLocked claims the dispatch slot if the mailbox is receivable
// and no dispatcher is running. Caller holds m.mu.
func (m *Mailbox) startDispatchLocked() bool {
	if m.closed || m.suspended || m.dispatching || len(m.queue) == 0 {
		return false
	}
	m.dispatching = true
	return true
}

// Suspend halts dispatch after the current delivery, keeping the queue.
func (m *Mailbox) Suspend() {
	m.mu.Lock()
	m.suspended = true
	m.mu.Unlock()
}

// Resume re-enables dispatch and drains the queue if anything is pending.
func (m *Mailbox) Resume() {
	m.mu.Lock()
	m.suspended = false
	start := m.startDispatchLocked()
	m.mu.Unlock()
	if start {
		go m.run()
	}
}

// Close marks the mailbox closed and dead-letters everything still queued.
// Idempotent; the in-flight delivery, if any, completes normally.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	pending := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, inv := range pending {
		m.deadLetter(inv, SentinelStopped)
	}
}

// IsClosed reports whether the mailbox is closed.
func (m *Mailbox) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// IsSuspended reports whether the mailbox is suspended.
func (m *Mailbox) IsSuspended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suspended
}

// IsReceivable reports whether a queued invocation could be dispatched now.
func (m *Mailbox) IsReceivable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && !m.suspended && len(m.queue) > 0
}

// Depth returns the number of queued invocations.
func (m *Mailbox) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// DroppedCount returns how many invocations overflow handling has dropped
// or rejected.
func (m *Mailbox) DroppedCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}

// run drains the queue, one delivery at a time, until the mailbox stops
// being receivable. Only one run loop is ever active per mailbox.
func (m *Mailbox) run() {
	for {
		m.mu.Lock()
		if m.closed || m.suspended || len(m.queue) == 0 {
			m.dispatching = false
			m.mu.Unlock()
			return
		}
		inv := m.queue[0]
		m.queue = m.queue[1:]
		depth := len(m.queue)
		m.mu.Unlock()

		m.metrics.MailboxDepth(inv.target.address.String(), depth)
		m.deliver(inv)
	}
}

// deliver runs one invocation against the target actor. On success the
// completion resolves with the result. On failure the error is logged, the
// completion fails, the mailbox suspends, and the failure is reported to the
// stage, which routes it to the actor's supervisor. The execution-context
// snapshot is published for the duration of the delivery frame and cleared
// on every exit path.
func (m *Mailbox) deliver(inv *Invocation) {
	env := inv.target
	if env.IsStopped() {
		m.deadLetter(inv, SentinelStopped)
		return
	}

	actorType := env.definition.Type()
	timer := m.metrics.DeliveryDuration(actorType)
	defer timer.ObserveDuration()

	env.setMessageContext(inv.snapshot)
	inv.snapshot.Propagate()

	res, err := m.invoke(env.Actor(), inv)
	if err == nil {
		// a closure may hand back a deferred result; the next dispatch
		// waits for it
		if c, ok := res.(*Completion); ok {
			res, err = c.Await(env.stage.ctx)
		}
	}

	if err != nil {
		m.metrics.DeliveryProcessed(actorType, false)
		if inv.noRoute {
			env.log.Error("supervisor notification failed",
				slog.String("invocation", inv.representation),
				slog.Any("error", err),
			)
		} else {
			env.log.Error("delivery failed",
				slog.String("invocation", inv.representation),
				slog.Any("error", err),
			)
			// suspend synchronously so the supervisor can still read
			// the published snapshot before anything else dispatches
			m.Suspend()
			env.setState(Suspended)
			env.stage.HandleFailureOf(newSupervised(env, err))
		}
		env.clearMessageContext()
		inv.completion.Fail(err)
		return
	}

	m.metrics.DeliveryProcessed(actorType, true)
	env.clearMessageContext()
	inv.completion.With(res)
}

// invoke runs the closure with panic containment.
func (m *Mailbox) invoke(a Actor, inv *Invocation) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("delivery panicked",
				slog.String("invocation", inv.representation),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("delivery panicked: %v", r)
		}
	}()
	return inv.closure(a)
}

// deadLetter reports a failed delivery and resolves the invocation with the
// given sentinel.
func (m *Mailbox) deadLetter(inv *Invocation, reason Sentinel) {
	if m.deadLetters != nil {
		m.deadLetters.FailedDelivery(inv.target.log, DeadLetter{
			ID:             gonanoid.Must(8),
			Address:        inv.target.address,
			Representation: inv.representation,
			Reason:         reason,
		})
	}
	m.metrics.DeadLetter(reason.String())
	inv.completion.With(reason)
}
