package eventbus

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePublishPriorityOrder(t *testing.T) {
	bus := New(1000, 1000)

	var mu sync.Mutex
	var order []int

	for _, p := range []int{1, 5, 3} {
		priority := p
		_, err := bus.Subscribe("topic.a", priority, time.Second, "owner", func(ctx context.Context, evt any) error {
			mu.Lock()
			order = append(order, priority)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	bus.PublishSync("topic.a", nil, time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5, 3, 1}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(1000, 1000)

	var calls int
	id, err := bus.Subscribe("topic.b", 0, time.Second, "owner", func(ctx context.Context, evt any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	bus.Unsubscribe(id)
	bus.PublishSync("topic.b", nil, time.Second)

	assert.Equal(t, 0, calls)
}

func TestUnsubscribeOwnerRemovesAllSubscriptions(t *testing.T) {
	bus := New(1000, 1000)

	for i := 0; i < 3; i++ {
		_, err := bus.Subscribe("topic.c", 0, time.Second, "pluginA", func(ctx context.Context, evt any) error { return nil })
		require.NoError(t, err)
	}
	_, err := bus.Subscribe("topic.c", 0, time.Second, "pluginB", func(ctx context.Context, evt any) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 3, bus.OwnerSubscriptionCount("pluginA"))

	removed := bus.UnsubscribeOwner("pluginA")
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, bus.OwnerSubscriptionCount("pluginA"))
	assert.Equal(t, 1, bus.OwnerSubscriptionCount("pluginB"))
}

func TestRegexPatternSubscription(t *testing.T) {
	bus := New(1000, 1000)

	var got string
	_, err := bus.Subscribe("re:^ncatbot\\..*_event$", 0, time.Second, "owner", func(ctx context.Context, evt any) error {
		got, _ = evt.(string)
		return nil
	})
	require.NoError(t, err)

	bus.PublishSync("ncatbot.group_message_event", "hello", time.Second)
	assert.Equal(t, "hello", got)
}

func TestInvalidRegexPatternRejected(t *testing.T) {
	bus := New(1000, 1000)
	_, err := bus.Subscribe("re:(unterminated", 0, time.Second, "owner", func(ctx context.Context, evt any) error { return nil })
	require.Error(t, err)
}

func TestPatternCompilesAsDocumented(t *testing.T) {
	_, err := regexp.Compile("^ncatbot\\..*_event$")
	require.NoError(t, err)
}
