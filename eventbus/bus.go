// Package eventbus implements the priority-ordered, pattern-subscribable
// publish/subscribe system bridging raw wire events to typed domain events
// (§4.3). Two subscription tables are kept: an exact-match table keyed by
// event-type string, and a pattern table of compiled "re:"-prefixed regexes.
package eventbus

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// Handler processes a published event. The event argument is `any` because
// the bus is type-agnostic: typed events (event.GroupMessage, event.Notice,
// ...) and raw frames are both valid payloads depending on who publishes.
type Handler func(ctx context.Context, evt any) error

// Mode selects how Publish waits for handler completion.
type Mode int

const (
	// AwaitAll blocks until every matching handler has completed or been
	// cancelled by its timeout.
	AwaitAll Mode = iota
	// FireAndForget schedules handlers and returns immediately. Used for
	// raw upstream events where receive-loop backpressure is undesirable.
	FireAndForget
)

// subscription is the bus's internal record of one registered handler.
type subscription struct {
	id       string
	pattern  string
	re       *regexp.Regexp // nil for exact-match subscriptions
	handler  Handler
	priority int
	timeout  time.Duration // 0 means no per-handler timeout
	owner    string
	seq      int64 // insertion order, for priority tie-breaking
}

// Bus is the process-wide event bus. All fields are guarded by mu; the
// scheduling model (§5) relies on mutations happening only on the owning
// event loop's goroutine for publish-time snapshot consistency, but the
// registry itself is safe under concurrent subscribe/unsubscribe from any
// goroutine.
type Bus struct {
	mu      sync.RWMutex
	exact   map[string][]*subscription
	pattern []*subscription
	nextID  uint64
	nextSeq int64

	// limiter bounds the rate at which FireAndForget spawns handler
	// goroutines, resolving the §9 open question on unbounded task spawn.
	limiter *rate.Limiter
}

// New creates an empty bus. burst/rps bound the fire-and-forget scheduling
// rate; pass 0 for either to disable limiting (handlers are spawned as fast
// as Publish can loop).
func New(rps float64, burst int) *Bus {
	b := &Bus{
		exact: make(map[string][]*subscription),
	}
	if rps > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return b
}

// Subscribe registers handler under pattern with the given priority (higher
// runs first), owner plugin name, and optional per-handler timeout (0 =
// unbounded). A pattern beginning with "re:" is compiled as a regex matched
// against the event-type string; any other pattern is matched exactly.
// Returns a process-wide-unique subscription id.
func (b *Bus) Subscribe(pattern string, priority int, timeout time.Duration, owner string, handler Handler) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := formatID(b.nextID)
	b.nextSeq++
	sub := &subscription{
		id:       id,
		pattern:  pattern,
		handler:  handler,
		priority: priority,
		timeout:  timeout,
		owner:    owner,
		seq:      b.nextSeq,
	}

	if strings.HasPrefix(pattern, "re:") {
		re, err := regexp.Compile(strings.TrimPrefix(pattern, "re:"))
		if err != nil {
			return "", errors.Wrapf(err, "compiling event pattern %q", pattern)
		}
		sub.re = re
		b.pattern = append(b.pattern, sub)
	} else {
		b.exact[pattern] = append(b.exact[pattern], sub)
	}

	logger.BusDebugw("subscribed", "id", id, "pattern", pattern, "owner", owner, "priority", priority)
	return id, nil
}

// Unsubscribe removes a subscription by id. Unsubscribing an id that is not
// (or no longer) registered is a no-op, matching the invariant that double
// unsubscribe never errors.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subs := range b.exact {
		if idx := indexByID(subs, id); idx >= 0 {
			b.exact[topic] = append(subs[:idx], subs[idx+1:]...)
			logger.BusDebugw("unsubscribed", "id", id)
			return
		}
	}
	if idx := indexByID(b.pattern, id); idx >= 0 {
		b.pattern = append(b.pattern[:idx], b.pattern[idx+1:]...)
		logger.BusDebugw("unsubscribed", "id", id)
	}
}

// UnsubscribeOwner removes every subscription owned by owner, returning the
// count removed. Used by the plugin loader's Unload step (§4.5) to guarantee
// the post-unload empty-intersection invariant.
func (b *Bus) UnsubscribeOwner(owner string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for topic, subs := range b.exact {
		kept := subs[:0:0]
		for _, s := range subs {
			if s.owner == owner {
				n++
				continue
			}
			kept = append(kept, s)
		}
		b.exact[topic] = kept
	}
	kept := b.pattern[:0:0]
	for _, s := range b.pattern {
		if s.owner == owner {
			n++
			continue
		}
		kept = append(kept, s)
	}
	b.pattern = kept
	return n
}

// OwnerSubscriptionCount reports how many live subscriptions owner holds.
func (b *Bus) OwnerSubscriptionCount(owner string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.exact {
		for _, s := range subs {
			if s.owner == owner {
				n++
			}
		}
	}
	for _, s := range b.pattern {
		if s.owner == owner {
			n++
		}
	}
	return n
}

// matching returns a snapshot (§5: publish iterates a snapshot so mid-publish
// unsubscription is tolerated) of subscriptions for topic, ordered by
// descending priority with insertion order as the tiebreak.
func (b *Bus) matching(topic string) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*subscription
	out = append(out, b.exact[topic]...)
	for _, s := range b.pattern {
		if s.re.MatchString(topic) {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Publish dispatches evt to every subscription matching topic. AwaitAll
// runs the handlers one at a time in priority order and blocks until each
// has completed or been cancelled by its timeout;
// FireAndForget schedules them and returns immediately, subject to the
// bus's rate limiter.
func (b *Bus) Publish(ctx context.Context, topic string, evt any, mode Mode) {
	subs := b.matching(topic)
	if len(subs) == 0 {
		return
	}

	if mode == FireAndForget {
		var wg sync.WaitGroup
		for _, s := range subs {
			s := s
			if b.limiter != nil {
				_ = b.limiter.Wait(ctx)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.invoke(ctx, s, topic, evt)
			}()
		}
		return
	}

	for _, s := range subs {
		b.invoke(ctx, s, topic, evt)
	}
}

// PublishSync is the cross-thread publish helper for non-async callers: it
// blocks up to timeout for an AwaitAll-mode publish to complete.
func (b *Bus) PublishSync(topic string, evt any, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	b.Publish(ctx, topic, evt, AwaitAll)
}

func (b *Bus) invoke(ctx context.Context, s *subscription, topic string, evt any) {
	hctx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Newf("handler panic: %v", r)
			}
		}()
		done <- s.handler(hctx, evt)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.BusWarnw("handler error", "topic", topic, "subscription", s.id, "owner", s.owner, "err", err)
		}
	case <-hctx.Done():
		logger.BusWarnw("handler timed out, cancelled", "topic", topic, "subscription", s.id, "owner", s.owner)
	}
}

func indexByID(subs []*subscription, id string) int {
	for i, s := range subs {
		if s.id == id {
			return i
		}
	}
	return -1
}

func formatID(n uint64) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "sub-0"
	}
	buf := make([]byte, 0, 16)
	for n > 0 {
		buf = append([]byte{digits[n%36]}, buf...)
		n /= 36
	}
	return "sub-" + string(buf)
}
