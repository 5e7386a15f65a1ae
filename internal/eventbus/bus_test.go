package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitFansOutToAllSubscribers(t *testing.T) {
	b := New()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Emit("phase", "auth1", map[string]interface{}{"phase": "Deploying"})

	select {
	case ev := <-ch1:
		assert.Equal(t, "phase", ev.Kind)
		assert.Equal(t, "auth1", ev.Authority)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on subscriber 1")
	}

	select {
	case ev := <-ch2:
		assert.Equal(t, "phase", ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on subscriber 2")
	}
}

func TestBus_EmitDoesNotBlockWhenSubscriberFull(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			b.Emit("phase", "auth1", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber channel")
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBus_EmitAfterUnsubscribeIsSafe(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe()
	unsub()

	require.NotPanics(t, func() {
		b.Emit("phase", "auth1", nil)
	})
}
