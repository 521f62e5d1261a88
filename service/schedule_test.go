package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncatbot/core/eventbus"
)

func TestSchedulerRunsTaskRepeatedly(t *testing.T) {
	bus := eventbus.New(0, 0)
	s := NewScheduler(bus)

	var mu sync.Mutex
	var runs int
	s.Register("owner", "tick", 5*time.Millisecond, 0, nil, func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(30 * time.Millisecond)
	s.Cancel("owner", "tick")

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, runs, 1)
}

func TestSchedulerRespectsMaxRuns(t *testing.T) {
	bus := eventbus.New(0, 0)
	s := NewScheduler(bus)

	var mu sync.Mutex
	var runs int
	s.Register("owner", "limited", 5*time.Millisecond, 2, nil, func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, runs)
}

func TestSchedulerConditionSkipsRun(t *testing.T) {
	bus := eventbus.New(0, 0)
	s := NewScheduler(bus)

	var mu sync.Mutex
	var runs int
	allow := false
	s.Register("owner", "conditional", 5*time.Millisecond, 0, func() bool { return allow }, func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	require.Equal(t, 0, runs)
	mu.Unlock()

	allow = true
	time.Sleep(20 * time.Millisecond)
	s.Cancel("owner", "conditional")

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, runs, 0)
}

func TestCancelOwnerStopsAllTasksForOwner(t *testing.T) {
	bus := eventbus.New(0, 0)
	s := NewScheduler(bus)

	s.Register("pluginA", "t1", 5*time.Millisecond, 0, nil, func(ctx context.Context) error { return nil })
	s.Register("pluginA", "t2", 5*time.Millisecond, 0, nil, func(ctx context.Context) error { return nil })

	s.CancelOwner("pluginA")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.tasks, 0)
}
