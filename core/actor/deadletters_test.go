package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type panickyListener struct{}

func (panickyListener) Handle(DeadLetter) { panic("listener broken") }

func TestDeadLetters_notifiesAllListeners(t *testing.T) {
	s := newTestStage(t)

	first := &recordingListener{records: make(chan DeadLetter, 4)}
	second := &recordingListener{records: make(chan DeadLetter, 4)}
	s.DeadLetters().RegisterListener(first)
	s.DeadLetters().RegisterListener(panickyListener{})
	s.DeadLetters().RegisterListener(second)

	p, err := s.ActorFor(counterProtocol())
	require.NoError(t, err)
	// let the queued start() deliver first so ping is the only dead letter
	count(t, p)
	_, err = p.Stop().Await(tCtx(t))
	require.NoError(t, err)

	Tell(p, Representation("ping"), func(c *counter) error { return nil })

	// the panicking listener must not break fan-out
	for _, l := range []*recordingListener{first, second} {
		select {
		case dl := <-l.records:
			require.Contains(t, dl.Representation, "ping")
			require.NotEmpty(t, dl.ID)
			require.True(t, dl.Address.Equals(p.Address()))
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for dead letter")
		}
	}
}
