package command

import (
	"sync"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// Registry holds every registered command spec and tracks the resolver
// index's staleness (§4.8: "rebuilt lazily on next dispatch").
type Registry struct {
	mu     sync.RWMutex
	specs  []*Spec
	dirty  bool
	index  *resolverIndex
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{dirty: true}
}

// Register adds spec to the registry. Conflict detection (duplicate paths,
// non-prefix-free prefix sets) happens lazily at resolve time (§4.8 step 3),
// matching the source's "rebuild lazily" design.
func (r *Registry) Register(spec *Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, spec)
	r.dirty = true
	logger.CommandDebugw("registered command", "path", spec.Path, "owner", spec.Owner)
}

// UnregisterOwner removes every command spec owned by owner, returning the
// count removed (§4.5 Unload step).
func (r *Registry) UnregisterOwner(owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.specs[:0:0]
	n := 0
	for _, s := range r.specs {
		if s.Owner == owner {
			n++
			continue
		}
		kept = append(kept, s)
	}
	r.specs = kept
	r.dirty = true
	return n
}

// OwnerCommandCount reports how many live command specs owner holds
// (§8 invariant 7).
func (r *Registry) OwnerCommandCount(owner string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.specs {
		if s.Owner == owner {
			n++
		}
	}
	return n
}

// Specs returns a snapshot of every registered spec.
func (r *Registry) Specs() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Index returns the current resolver index, rebuilding it if the registry
// has mutated since the last build. Concurrent rebuilds are idempotent and
// cheap; "under concurrent access the last-built wins" (§5).
func (r *Registry) Index() (*resolverIndex, error) {
	r.mu.RLock()
	if !r.dirty && r.index != nil {
		idx := r.index
		r.mu.RUnlock()
		return idx, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty && r.index != nil {
		return r.index, nil
	}

	idx, err := buildIndex(r.specs)
	if err != nil {
		return nil, errors.Wrap(err, "building command resolver index")
	}
	r.index = idx
	r.dirty = false
	return idx, nil
}
