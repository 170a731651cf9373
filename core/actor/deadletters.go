package actor

import (
	"log/slog"
	"sync"

	"github.com/codewandler/stage-go/core/address"
)

// DeadLetter describes an invocation that could not be delivered: its target
// was stopped or its mailbox rejected it.
type DeadLetter struct {
	ID             string
	Address        address.Address
	Representation string
	Reason         Sentinel
}

// DeadLetterListener observes dead letters as they occur.
type DeadLetterListener interface {
	Handle(dl DeadLetter)
}

// DeadLetters is the stage-wide sink. Every dead letter is logged via the
// target actor's logger, then fanned out to registered listeners. A
// panicking listener is logged and does not affect the others.
type DeadLetters struct {
	log *slog.Logger

	mu        sync.RWMutex
	listeners []DeadLetterListener
}

// NewDeadLetters creates an empty sink.
func NewDeadLetters(log *slog.Logger) *DeadLetters {
	if log == nil {
		log = slog.Default()
	}
	return &DeadLetters{log: log}
}

// RegisterListener adds a listener. Listeners are notified in registration
// order.
func (d *DeadLetters) RegisterListener(l DeadLetterListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// FailedDelivery records one dead letter. log is the target actor's logger;
// the sink's own logger is the fallback.
func (d *DeadLetters) FailedDelivery(log *slog.Logger, dl DeadLetter) {
	if log == nil {
		log = d.log
	}
	log.Warn("dead letter",
		slog.String("id", dl.ID),
		slog.String("invocation", dl.Representation),
		slog.String("reason", dl.Reason.String()),
	)

	d.mu.RLock()
	listeners := make([]DeadLetterListener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		d.notify(l, dl)
	}
}

func (d *DeadLetters) notify(l DeadLetterListener, dl DeadLetter) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dead-letter listener panicked", slog.Any("recovered", r))
		}
	}()
	l.Handle(dl)
}
