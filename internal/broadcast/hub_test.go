package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishLogDeliversToSubscriber(t *testing.T) {
	hub := New()
	sub, err := hub.SubscribeLogs()
	require.NoError(t, err)
	defer sub.Close()

	hub.PublishLog("hello")

	select {
	case line := <-sub.C:
		assert.Equal(t, "hello", line)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log line")
	}
}

func TestSubscribeRejectsBeyondCapacity(t *testing.T) {
	hub := New()
	var subs []*Subscription[string]
	for i := 0; i < MaxSubscribersPerChannel; i++ {
		sub, err := hub.SubscribeLogs()
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()

	_, err := hub.SubscribeLogs()
	assert.ErrorIs(t, err, ErrTooManySubscribers)
}

func TestPublishDropsSlowSubscriberWithoutBlocking(t *testing.T) {
	hub := New()
	sub, err := hub.SubscribeLogs()
	require.NoError(t, err)

	// Fill the subscriber's buffer without draining it.
	for i := 0; i < subscriberBufferSize+5; i++ {
		hub.PublishLog("line")
	}

	assert.Equal(t, 0, hub.LogSubscriberCount(), "a subscriber whose buffer overflows must be silently removed")
	_ = sub
}

func TestOtherSubscribersUnaffectedByOneRemoval(t *testing.T) {
	hub := New()
	fast, err := hub.SubscribeLogs()
	require.NoError(t, err)
	defer fast.Close()

	slow, err := hub.SubscribeLogs()
	require.NoError(t, err)

	for i := 0; i < subscriberBufferSize+5; i++ {
		hub.PublishLog("line")
		<-fast.C
	}

	assert.Equal(t, 1, hub.LogSubscriberCount(), "only the overflowing subscriber should be removed")

	hub.PublishLog("after-removal")
	select {
	case line := <-fast.C:
		assert.NotEmpty(t, line)
	case <-time.After(time.Second):
		t.Fatal("surviving subscriber did not receive message")
	}
	_ = slow
}

func TestCloseUnsubscribesAndClosesChannel(t *testing.T) {
	hub := New()
	sub, err := hub.SubscribeQueue()
	require.NoError(t, err)

	sub.Close()
	assert.Equal(t, 0, hub.QueueSubscriberCount())

	_, ok := <-sub.C
	assert.False(t, ok, "channel should be closed after unsubscribe")

	// Closing twice must not panic.
	sub.Close()
}

func TestTrafficChannelCarriesEventMaps(t *testing.T) {
	hub := New()
	sub, err := hub.SubscribeTraffic()
	require.NoError(t, err)
	defer sub.Close()

	hub.PublishTraffic(map[string]any{"method": "GET", "path": "/foo", "status": 200})

	select {
	case event := <-sub.C:
		assert.Equal(t, "GET", event["method"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for traffic event")
	}
}
