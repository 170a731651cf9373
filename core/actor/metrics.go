package actor

import "github.com/codewandler/stage-go/core/metrics"

// StageMetrics is the instrumentation surface of the runtime. All methods
// are safe for concurrent use. The Prometheus implementation lives in
// adapters/prometheus; the default is a no-op.
type StageMetrics interface {
	// Actor lifecycle
	ActorSpawned(actorType string)
	ActorStopped(actorType string)
	ActorRestarted(actorType string)
	ActorFailure(actorType string)

	// Delivery
	DeliveryDuration(actorType string) metrics.Timer
	DeliveryProcessed(actorType string, success bool)

	// Mailbox
	MailboxDepth(addr string, depth int)
	MailboxOverflow(policy string)
	DeadLetter(reason string)
}

type nopStageMetrics struct{}

func (nopStageMetrics) ActorSpawned(string)   {}
func (nopStageMetrics) ActorStopped(string)   {}
func (nopStageMetrics) ActorRestarted(string) {}
func (nopStageMetrics) ActorFailure(string)   {}

func (nopStageMetrics) DeliveryDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopStageMetrics) DeliveryProcessed(string, bool)        {}

func (nopStageMetrics) MailboxDepth(string, int) {}
func (nopStageMetrics) MailboxOverflow(string)   {}
func (nopStageMetrics) DeadLetter(string)        {}

// NopStageMetrics returns a no-op StageMetrics implementation.
func NopStageMetrics() StageMetrics { return nopStageMetrics{} }
