package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/stage-go/core/actor"
	"github.com/codewandler/stage-go/core/metrics"
)

// stageMetrics implements actor.StageMetrics using Prometheus.
type stageMetrics struct {
	actorsSpawned    *prometheus.CounterVec
	actorsStopped    *prometheus.CounterVec
	actorsRestarted  *prometheus.CounterVec
	actorFailures    *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	deliveriesTotal  *prometheus.CounterVec
	mailboxDepth     *prometheus.GaugeVec
	mailboxOverflow  *prometheus.CounterVec
	deadLetters      *prometheus.CounterVec
}

// NewStageMetrics creates a Prometheus implementation of actor.StageMetrics
// and registers its collectors with reg.
func NewStageMetrics(reg prometheus.Registerer) actor.StageMetrics {
	m := &stageMetrics{
		actorsSpawned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_actors_spawned_total",
			Help: "Total number of actors created",
		}, []string{"actor_type"}),

		actorsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_actors_stopped_total",
			Help: "Total number of actors stopped",
		}, []string{"actor_type"}),

		actorsRestarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_actors_restarted_total",
			Help: "Total number of actor restarts",
		}, []string{"actor_type"}),

		actorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_actor_failures_total",
			Help: "Total number of failures routed to supervision",
		}, []string{"actor_type"}),

		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stage_delivery_duration_seconds",
			Help:    "Invocation delivery time in seconds",
			Buckets: defaultBuckets,
		}, []string{"actor_type"}),

		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_deliveries_total",
			Help: "Total number of delivered invocations",
		}, []string{"actor_type", "success"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stage_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor"}),

		mailboxOverflow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_mailbox_overflow_total",
			Help: "Total number of invocations dropped or rejected by bounded mailboxes",
		}, []string{"policy"}),

		deadLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stage_dead_letters_total",
			Help: "Total number of dead letters",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.actorsSpawned,
		m.actorsStopped,
		m.actorsRestarted,
		m.actorFailures,
		m.deliveryDuration,
		m.deliveriesTotal,
		m.mailboxDepth,
		m.mailboxOverflow,
		m.deadLetters,
	)

	return m
}

func (m *stageMetrics) ActorSpawned(actorType string) {
	m.actorsSpawned.WithLabelValues(actorType).Inc()
}

func (m *stageMetrics) ActorStopped(actorType string) {
	m.actorsStopped.WithLabelValues(actorType).Inc()
}

func (m *stageMetrics) ActorRestarted(actorType string) {
	m.actorsRestarted.WithLabelValues(actorType).Inc()
}

func (m *stageMetrics) ActorFailure(actorType string) {
	m.actorFailures.WithLabelValues(actorType).Inc()
}

func (m *stageMetrics) DeliveryDuration(actorType string) metrics.Timer {
	return newTimer(m.deliveryDuration.WithLabelValues(actorType))
}

func (m *stageMetrics) DeliveryProcessed(actorType string, success bool) {
	m.deliveriesTotal.WithLabelValues(actorType, boolLabel(success)).Inc()
}

func (m *stageMetrics) MailboxDepth(addr string, depth int) {
	m.mailboxDepth.WithLabelValues(addr).Set(float64(depth))
}

func (m *stageMetrics) MailboxOverflow(policy string) {
	m.mailboxOverflow.WithLabelValues(policy).Inc()
}

func (m *stageMetrics) DeadLetter(reason string) {
	m.deadLetters.WithLabelValues(reason).Inc()
}

var _ actor.StageMetrics = (*stageMetrics)(nil)
