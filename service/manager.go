// Package service implements the service manager and run-mode lifecycle
// (§4.11): ordered startup/shutdown of the framework's subsystems, plus
// front (blocking) and back (worker-goroutine) run modes.
package service

import (
	"context"
	"sort"
	"sync"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// Service is anything the manager can start and stop in dependency order.
type Service interface {
	Name() string
	// Requires lists the names of services that must be loaded first.
	Requires() []string
	OnLoad(ctx context.Context) error
	OnClose(ctx context.Context) error
}

// Eager reports whether a service loads at startup rather than on first use.
// Services that don't implement it are treated as eager.
type Eager interface {
	IsEager() bool
}

// Manager registers services by name and runs them in dependency order
// (§4.11).
type Manager struct {
	mu       sync.Mutex
	services map[string]Service
	order    []string // registration order, used when no dependency exists
	loaded   []string // load order actually taken, for reverse-order close
}

// NewManager creates an empty service manager.
func NewManager() *Manager {
	return &Manager{services: make(map[string]Service)}
}

// Register adds svc under its own Name(). Registering the same name twice
// replaces the previous registration.
func (m *Manager) Register(svc Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.services[svc.Name()]; !exists {
		m.order = append(m.order, svc.Name())
	}
	m.services[svc.Name()] = svc
}

// LoadAll runs OnLoad for every eager service, in an order satisfying each
// service's declared Requires(), falling back to registration order among
// services with no relative dependency. Lazy services are skipped; call
// LoadOne for those when first needed.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	order, err := m.topoOrder()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	for _, name := range order {
		svc := m.services[name]
		if eager, ok := svc.(Eager); ok && !eager.IsEager() {
			continue
		}
		if err := svc.OnLoad(ctx); err != nil {
			return errors.LifecycleError(err, "service %q failed to load", name)
		}
		m.mu.Lock()
		m.loaded = append(m.loaded, name)
		m.mu.Unlock()
		logger.PluginInfow("service loaded", "service", name)
	}
	return nil
}

// LoadOne loads a single (typically lazy) service plus any of its
// not-yet-loaded dependencies.
func (m *Manager) LoadOne(ctx context.Context, name string) error {
	m.mu.Lock()
	svc, ok := m.services[name]
	alreadyLoaded := contains(m.loaded, name)
	m.mu.Unlock()
	if !ok {
		return errors.Newf("service %q is not registered", name)
	}
	if alreadyLoaded {
		return nil
	}
	for _, dep := range svc.Requires() {
		if err := m.LoadOne(ctx, dep); err != nil {
			return err
		}
	}
	if err := svc.OnLoad(ctx); err != nil {
		return errors.LifecycleError(err, "service %q failed to load", name)
	}
	m.mu.Lock()
	m.loaded = append(m.loaded, name)
	m.mu.Unlock()
	return nil
}

// CloseAll runs OnClose for every loaded service in reverse load order.
// Failures are logged and do not block closing the rest (§4.11).
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	loaded := make([]string, len(m.loaded))
	copy(loaded, m.loaded)
	m.mu.Unlock()

	for i := len(loaded) - 1; i >= 0; i-- {
		name := loaded[i]
		svc := m.services[name]
		if err := svc.OnClose(ctx); err != nil {
			logger.PluginErrorw("service failed to close cleanly", "service", name, "err", err)
		}
	}
}

// topoOrder computes a load order satisfying Requires() edges, falling back
// to registration order for services with no relative dependency. Caller
// holds m.mu.
func (m *Manager) topoOrder() ([]string, error) {
	visited := map[string]int{} // 0=unvisited,1=in-progress,2=done
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return errors.Newf("service dependency cycle detected at %q", name)
		}
		visited[name] = 1
		svc, ok := m.services[name]
		if !ok {
			return errors.Newf("service %q depends on unregistered service %q", name, name)
		}
		deps := append([]string(nil), svc.Requires()...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[name] = 2
		order = append(order, name)
		return nil
	}

	for _, name := range m.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
