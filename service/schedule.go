package service

import (
	"context"
	"sync"
	"time"

	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/logger"
)

// TaskExecutedPayload is published on event.TypeTimeTaskExecuted after each
// run of a scheduled task, letting other plugins observe completions
// (§EXT supplemented feature 1).
type TaskExecutedPayload struct {
	Owner   string
	Name    string
	RunNum  int
	Err     error
}

// Condition is an optional predicate gating whether a scheduled run
// actually executes this tick (e.g. "only during business hours").
type Condition func() bool

// task is one registered recurring job.
type task struct {
	owner     string
	name      string
	interval  time.Duration
	maxRuns   int // 0 = unlimited
	condition Condition
	fn        func(ctx context.Context) error

	cancel context.CancelFunc
	runs   int
}

// Scheduler runs named recurring jobs owned by plugins, cancelled
// automatically on plugin unload (§EXT supplemented feature 1).
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]*task // key: owner + "\x00" + name
	bus   *eventbus.Bus
}

// NewScheduler creates a scheduler publishing completion events on bus.
func NewScheduler(bus *eventbus.Bus) *Scheduler {
	return &Scheduler{tasks: make(map[string]*task), bus: bus}
}

// Name implements service.Service.
func (s *Scheduler) Name() string { return "scheduler" }

// Requires implements service.Service.
func (s *Scheduler) Requires() []string { return nil }

// OnLoad implements service.Service; the scheduler itself has no startup
// work, jobs are registered on demand via Register.
func (s *Scheduler) OnLoad(ctx context.Context) error { return nil }

// OnClose cancels every still-running task.
func (s *Scheduler) OnClose(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		t.cancel()
		delete(s.tasks, key)
	}
	return nil
}

// Register schedules fn to run every interval, owned by owner under name.
// maxRuns caps the number of executions (0 = unlimited); condition, if
// non-nil, is checked before each run and a false result skips that tick
// without counting against maxRuns.
func (s *Scheduler) Register(owner, name string, interval time.Duration, maxRuns int, condition Condition, fn func(ctx context.Context) error) {
	key := owner + "\x00" + name
	s.mu.Lock()
	if existing, ok := s.tasks[key]; ok {
		existing.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		owner:     owner,
		name:      name,
		interval:  interval,
		maxRuns:   maxRuns,
		condition: condition,
		fn:        fn,
		cancel:    cancel,
	}
	s.tasks[key] = t
	s.mu.Unlock()

	go s.run(ctx, t)
}

// Cancel stops a single named task owned by owner.
func (s *Scheduler) Cancel(owner, name string) {
	key := owner + "\x00" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		t.cancel()
		delete(s.tasks, key)
	}
}

// CancelOwner stops every task owned by owner (plugin unload, §4.5).
func (s *Scheduler) CancelOwner(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		if t.owner == owner {
			t.cancel()
			delete(s.tasks, key)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, t *task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.condition != nil && !t.condition() {
				continue
			}
			t.runs++
			err := t.fn(ctx)
			if err != nil {
				logger.PluginWarnw("scheduled task failed", "owner", t.owner, "task", t.name, "err", err)
			}
			s.bus.Publish(ctx, string(event.TypeTimeTaskExecuted), TaskExecutedPayload{
				Owner: t.owner, Name: t.name, RunNum: t.runs, Err: err,
			}, eventbus.FireAndForget)

			if t.maxRuns > 0 && t.runs >= t.maxRuns {
				s.Cancel(t.owner, t.name)
				return
			}
		}
	}
}
