package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// drain waits until every previously queued invocation was delivered.
func drain(t *testing.T, p *Proxy) {
	t.Helper()
	_, err := Ask(p, Representation("noop"), func(a *flaky) (struct{}, error) {
		return struct{}{}, nil
	}).Await(tCtx(t))
	require.NoError(t, err)
}

func TestMailbox_serialization(t *testing.T) {
	s := newTestStage(t)

	p, err := s.ActorFor(counterProtocol())
	require.NoError(t, err)

	const senders = 8
	const perSender = 50

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				// non-atomic increment: only strict per-actor
				// serialization makes the total come out right
				increment(p)
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		n, err := Ask(p, Representation("count"), func(c *counter) (int, error) {
			return c.count, nil
		}).Await(tCtx(t))
		return err == nil && n == senders*perSender
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMailbox_perSenderOrder(t *testing.T) {
	s := newTestStage(t)

	var got []int
	proto := ProtocolFor[*stepper](func(def Definition) (Actor, error) {
		return &stepper{}, nil
	})
	p, err := s.ActorFor(proto)
	require.NoError(t, err)

	var last *Completion
	for i := 0; i < 20; i++ {
		i := i
		last = Tell(p, Representation("record", i), func(a *stepper) error {
			got = append(got, i)
			return nil
		})
	}
	_, err = last.Await(tCtx(t))
	require.NoError(t, err)

	for i, v := range got {
		require.Equal(t, i, v)
	}
	require.Len(t, got, 20)
}

func TestMailbox_suspendHoldsDelivery(t *testing.T) {
	s := newTestStage(t)

	p, err := s.ActorFor(flakyProtocol())
	require.NoError(t, err)
	drain(t, p)

	p.mailbox.Suspend()

	c := setValue(p, 1)
	time.Sleep(50 * time.Millisecond)
	require.False(t, c.IsResolved())
	require.False(t, p.mailbox.IsReceivable())

	p.mailbox.Resume()
	_, err = c.Await(tCtx(t))
	require.NoError(t, err)
	require.Equal(t, 1, getValue(t, p))
}

func TestMailbox_closeIsIdempotent(t *testing.T) {
	m := NewMailbox(MailboxOptions{})
	m.Close()
	m.Close()
	require.True(t, m.IsClosed())
}

// Bounded mailbox, DropOldest: at capacity the head is displaced, resolved
// with the overflow sentinel, and the remaining deliveries keep their order.
func TestMailbox_boundedDropOldest(t *testing.T) {
	s := newTestStage(t)

	mb := s.NewMailbox(2, DropOldest)
	p, err := s.ActorFor(flakyProtocol(), WithMailbox(mb))
	require.NoError(t, err)
	drain(t, p)

	mb.Suspend()

	a := setValue(p, 1)
	b := setValue(p, 2)
	c := setValue(p, 3)

	va, err := a.Await(tCtx(t))
	require.NoError(t, err)
	require.Equal(t, SentinelDropped, va)

	mb.Resume()

	_, err = b.Await(tCtx(t))
	require.NoError(t, err)
	_, err = c.Await(tCtx(t))
	require.NoError(t, err)

	require.Equal(t, 3, getValue(t, p))
	require.Equal(t, int64(1), mb.DroppedCount())
}

func TestMailbox_boundedDropNewest(t *testing.T) {
	s := newTestStage(t)

	mb := s.NewMailbox(2, DropNewest)
	p, err := s.ActorFor(flakyProtocol(), WithMailbox(mb))
	require.NoError(t, err)
	drain(t, p)

	mb.Suspend()

	a := setValue(p, 1)
	b := setValue(p, 2)
	c := setValue(p, 3)

	vc, err := c.Await(tCtx(t))
	require.NoError(t, err)
	require.Equal(t, SentinelDropped, vc)

	mb.Resume()

	_, err = a.Await(tCtx(t))
	require.NoError(t, err)
	_, err = b.Await(tCtx(t))
	require.NoError(t, err)

	require.Equal(t, 2, getValue(t, p))
	require.Equal(t, int64(1), mb.DroppedCount())
}

func TestMailbox_boundedReject(t *testing.T) {
	s := newTestStage(t)

	listener := &recordingListener{records: make(chan DeadLetter, 8)}
	s.DeadLetters().RegisterListener(listener)

	mb := s.NewMailbox(2, Reject)
	p, err := s.ActorFor(flakyProtocol(), WithMailbox(mb))
	require.NoError(t, err)
	drain(t, p)

	mb.Suspend()

	setValue(p, 1)
	setValue(p, 2)
	rejected := setValue(p, 3)

	v, err := rejected.Await(tCtx(t))
	require.NoError(t, err)
	require.Equal(t, SentinelMailboxFull, v)

	select {
	case dl := <-listener.records:
		require.Equal(t, SentinelMailboxFull, dl.Reason)
		require.Contains(t, dl.Representation, "set")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for dead letter")
	}

	require.Equal(t, int64(1), mb.DroppedCount())
	mb.Resume()
}

// The execution-context snapshot is taken at enqueue time: mutations after
// the send are invisible to the delivered frame.
func TestMailbox_snapshotAtEnqueue(t *testing.T) {
	s := newTestStage(t)

	p, err := s.ActorFor(flakyProtocol())
	require.NoError(t, err)
	drain(t, p)

	p.mailbox.Suspend()

	p.ExecutionContext().Set("k", "v1")

	observed := make(chan any, 1)
	Tell(p, Representation("observe"), func(a *flaky) error {
		v, _ := a.MessageContext().Get("k")
		observed <- v
		return nil
	})

	p.ExecutionContext().Set("k", "v2")
	p.mailbox.Resume()

	select {
	case v := <-observed:
		require.Equal(t, "v1", v)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

// The message context is cleared once the delivery frame exits.
func TestMailbox_messageContextClearedAfterDelivery(t *testing.T) {
	s := newTestStage(t)

	p, err := s.ActorFor(flakyProtocol())
	require.NoError(t, err)

	p.ExecutionContext().Set("k", "v")
	drain(t, p)

	require.False(t, p.env.MessageContext().HasContext())
}
