package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStageMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStageMetrics(reg).(*stageMetrics)

	require.NotNil(t, m)

	m.ActorSpawned("counter")
	m.ActorSpawned("counter")
	m.ActorStopped("counter")
	m.ActorRestarted("counter")
	m.ActorFailure("counter")

	timer := m.DeliveryDuration("counter")
	assert.NotNil(t, timer)
	timer.ObserveDuration()

	m.DeliveryProcessed("counter", true)
	m.DeliveryProcessed("counter", false)

	m.MailboxDepth("1", 3)
	m.MailboxOverflow("drop_oldest")
	m.DeadLetter("actor stopped")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.actorsSpawned.WithLabelValues("counter")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actorsStopped.WithLabelValues("counter")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actorsRestarted.WithLabelValues("counter")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actorFailures.WithLabelValues("counter")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveriesTotal.WithLabelValues("counter", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveriesTotal.WithLabelValues("counter", "false")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.mailboxDepth.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.mailboxOverflow.WithLabelValues("drop_oldest")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deadLetters.WithLabelValues("actor stopped")))
}

func TestNewStageMetrics_registersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewStageMetrics(reg)

	// double registration must panic via MustRegister
	require.Panics(t, func() { NewStageMetrics(reg) })
}
