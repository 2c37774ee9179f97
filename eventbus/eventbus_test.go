package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"gatekeep/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New(t.Context())

	var a, c atomic.Int32
	b.Subscribe("verify.completed", func(ctx context.Context, msg *Message) error {
		a.Add(1)
		return nil
	})
	b.Subscribe("verify.completed", func(ctx context.Context, msg *Message) error {
		c.Add(1)
		return nil
	})
	b.Subscribe("other", func(ctx context.Context, msg *Message) error {
		t.Error("wrong topic delivered")
		return nil
	})

	for range 10 {
		b.Publish("verify.completed", "payload")
	}
	require.NoError(t, b.Wait(t.Context()))

	assert.Equal(t, int32(10), a.Load())
	assert.Equal(t, int32(10), c.Load())
}

func TestHandlerErrorDoesNotPropagate(t *testing.T) {
	b := New(t.Context())
	b.Subscribe("t", func(ctx context.Context, msg *Message) error {
		return errors.New("handler exploded")
	})

	// Publish must not panic or block on the failing handler.
	b.Publish("t", nil)
	require.NoError(t, b.Wait(t.Context()))
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	b := New(t.Context(), WithWorkerPool(2))
	var after atomic.Bool
	b.Subscribe("t", func(ctx context.Context, msg *Message) error {
		panic("boom")
	})

	b.Publish("t", nil)
	require.NoError(t, b.Wait(t.Context()))

	// Workers must survive the panic.
	b.Subscribe("t2", func(ctx context.Context, msg *Message) error {
		after.Store(true)
		return nil
	})
	b.Publish("t2", nil)
	require.NoError(t, b.Wait(t.Context()))
	assert.True(t, after.Load())
}

func TestShutdownDrainsAndRejects(t *testing.T) {
	b := New(t.Context())
	var handled atomic.Int32
	b.Subscribe("t", func(ctx context.Context, msg *Message) error {
		time.Sleep(10 * time.Millisecond)
		handled.Add(1)
		return nil
	})

	b.Publish("t", nil)
	require.NoError(t, b.Shutdown(t.Context()))
	assert.Equal(t, int32(1), handled.Load())

	// Messages published after shutdown are dropped, not delivered.
	b.Publish("t", nil)
	require.NoError(t, b.Wait(t.Context()))
	assert.Equal(t, int32(1), handled.Load())
}

func TestWaitTimeout(t *testing.T) {
	b := New(t.Context())
	release := make(chan struct{})
	b.Subscribe("t", func(ctx context.Context, msg *Message) error {
		<-release
		return nil
	})
	b.Publish("t", nil)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, b.Wait(ctx))

	close(release)
	require.NoError(t, b.Wait(t.Context()))
}

func TestHandlerContextOutlivesDerivedCancels(t *testing.T) {
	// Wiring contract: the bus is built on a base context, with request and
	// server contexts derived separately. Canceling those must not poison
	// handlers still draining.
	base := context.Background()
	b := New(base)

	ctxErr := make(chan error, 1)
	b.Subscribe("t", func(ctx context.Context, msg *Message) error {
		ctxErr <- ctx.Err()
		return nil
	})

	serverCtx, cancel := context.WithCancel(base)
	cancel()
	_ = serverCtx

	b.Publish("t", nil)
	require.NoError(t, b.Wait(context.Background()))
	assert.NoError(t, <-ctxErr, "handler context must be the bus's, not a canceled derivative")
}
