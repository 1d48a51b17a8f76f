package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_DeliversToOwnerOnly(t *testing.T) {
	b := NewBroker()
	alice, cancelAlice := b.Subscribe("alice")
	defer cancelAlice()
	bob, cancelBob := b.Subscribe("bob")
	defer cancelBob()

	Scoped{Owner: "alice", Next: b}.Publish(Event{Type: TypeToast})

	select {
	case ev := <-alice:
		assert.Equal(t, TypeToast, ev.Type)
		assert.Equal(t, "alice", ev.Owner)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the event")
	}

	select {
	case ev := <-bob:
		t.Fatalf("bob received %v", ev)
	default:
	}
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker()
	_, cancel := b.Subscribe("alice")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish(Event{Type: TypeStateChanged, Owner: "alice"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBroker_CancelClosesChannel(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("alice")
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	b.Publish(Event{Type: TypeStateChanged, Owner: "alice"})
}

func TestBroker_PublishCountReportsDelivery(t *testing.T) {
	b := NewBroker()
	scoped := Scoped{Owner: "alice", Next: b}
	assert.Equal(t, 0, b.PublishCount(Event{Type: TypeToast, Owner: "alice"}))
	assert.False(t, Deliver(scoped, Event{Type: TypeToast}))

	_, cancel1 := b.Subscribe("alice")
	defer cancel1()
	_, cancel2 := b.Subscribe("alice")
	defer cancel2()

	assert.Equal(t, 2, b.PublishCount(Event{Type: TypeToast, Owner: "alice"}))
	assert.True(t, Deliver(scoped, Event{Type: TypeToast}))
	assert.True(t, Deliver(Discard{}, Event{Type: TypeToast}))
}
