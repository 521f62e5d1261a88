package rbac

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/logger"
)

// DefaultCacheSize bounds the per-user effective-permission memoization
// cache (§4.6, §5 "wait-free against steady state").
const DefaultCacheSize = 4096

// effective is a memoized (whitelist, blacklist) pair for one user,
// flattened across its transitive role inheritance.
type effective struct {
	whitelist *trie
	blacklist *trie
}

// Service is the RBAC store: users, roles, inheritance, and a bounded LRU
// cache of per-user effective permission sets invalidated on any mutation.
type Service struct {
	mu            sync.RWMutex
	users         map[string]*User
	roles         map[string]*Role
	caseSensitive bool
	defaultRole   string

	cache *lru.Cache
}

// New creates an empty RBAC service. caseSensitive controls permission-path
// and component matching (default per §4.6 is case-sensitive).
func New(caseSensitive bool) *Service {
	c, _ := lru.New(DefaultCacheSize)
	return &Service{
		users:         make(map[string]*User),
		roles:         make(map[string]*Role),
		caseSensitive: caseSensitive,
		cache:         c,
	}
}

// SetDefaultRole sets the role automatically granted to users with no
// explicit role assignment when evaluating Check.
func (s *Service) SetDefaultRole(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultRole = name
	s.invalidateAll()
}

func (s *Service) invalidate(userID string) {
	s.cache.Remove(userID)
}

func (s *Service) invalidateAll() {
	s.cache.Purge()
}

// EnsureRole creates role name if absent and returns it.
func (s *Service) EnsureRole(name string) *Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		r = newRole(name)
		s.roles[name] = r
	}
	return r
}

// EnsureUser creates user id if absent and returns it.
func (s *Service) EnsureUser(id string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = newUser(id)
		s.users[id] = u
	}
	return u
}

// RemoveRole deletes a role, cascading its removal from every user and
// every other role's parent set (§4.6 "removing a role cascades").
func (s *Service) RemoveRole(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, name)
	for _, u := range s.users {
		delete(u.roles, name)
	}
	for _, r := range s.roles {
		delete(r.parents, name)
	}
	s.invalidateAll()
}

// AssignRole grants role to user, creating either if absent.
func (s *Service) AssignRole(userID, roleName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreateUserLocked(userID)
	s.getOrCreateRoleLocked(roleName)
	u.roles[roleName] = true
	s.invalidate(userID)
}

// UnassignRole removes role from user. No-op if not assigned.
func (s *Service) UnassignRole(userID, roleName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		delete(u.roles, roleName)
		s.invalidate(userID)
	}
}

// SetParent adds child -> parent inheritance. Rejected (pre-state preserved)
// if it would create a cycle, via a DFS from parent looking for child
// (§4.6, §8 invariant 4).
func (s *Service) SetParent(childRole, parentRole string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if childRole == parentRole {
		return errors.Newf("role %q cannot inherit from itself", childRole)
	}

	s.getOrCreateRoleLocked(parentRole)
	child := s.getOrCreateRoleLocked(childRole)

	if s.reachesLocked(parentRole, childRole, make(map[string]bool)) {
		return errors.Newf("setting %q as parent of %q would create a cycle", parentRole, childRole)
	}

	child.parents[parentRole] = true
	s.invalidateAll()
	return nil
}

// reachesLocked reports whether a DFS from `from` can reach `target` via
// parent edges. Caller holds s.mu.
func (s *Service) reachesLocked(from, target string, visited map[string]bool) bool {
	if from == target {
		return true
	}
	if visited[from] {
		return false
	}
	visited[from] = true
	role, ok := s.roles[from]
	if !ok {
		return false
	}
	for p := range role.parents {
		if s.reachesLocked(p, target, visited) {
			return true
		}
	}
	return false
}

// Grant adds permission to user's direct whitelist.
func (s *Service) Grant(userID, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreateUserLocked(userID)
	u.whitelist.add(permission)
	s.invalidate(userID)
}

// Revoke removes permission from user's direct whitelist (does not touch
// role-inherited grants).
func (s *Service) Revoke(userID, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.whitelist.remove(permission)
		s.invalidate(userID)
	}
}

// Ban adds permission to user's direct blacklist.
func (s *Service) Ban(userID, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreateUserLocked(userID)
	u.blacklist.add(permission)
	s.invalidate(userID)
}

// Unban removes permission from user's direct blacklist.
func (s *Service) Unban(userID, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.blacklist.remove(permission)
		s.invalidate(userID)
	}
}

// GrantRole / BanRole operate on a role's own whitelist/blacklist.
func (s *Service) GrantRole(roleName, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.getOrCreateRoleLocked(roleName)
	r.whitelist.add(permission)
	s.invalidateAll()
}

func (s *Service) BanRole(roleName, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.getOrCreateRoleLocked(roleName)
	r.blacklist.add(permission)
	s.invalidateAll()
}

func (s *Service) getOrCreateUserLocked(id string) *User {
	u, ok := s.users[id]
	if !ok {
		u = newUser(id)
		s.users[id] = u
	}
	return u
}

func (s *Service) getOrCreateRoleLocked(name string) *Role {
	r, ok := s.roles[name]
	if !ok {
		r = newRole(name)
		s.roles[name] = r
	}
	return r
}

// Check evaluates has_permission(user, path) per §4.6: expand roles
// transitively, check blacklist first (deny wins regardless of whitelist,
// §8 invariant 5), then whitelist, else default-closed deny.
func (s *Service) Check(userID, path string) bool {
	eff := s.effectiveFor(userID)
	if eff.blacklist.matchAny(path, s.caseSensitive) {
		logger.RBACDebugw("permission denied by blacklist", "user", userID, "path", path)
		return false
	}
	if eff.whitelist.matchAny(path, s.caseSensitive) {
		return true
	}
	return false
}

func (s *Service) effectiveFor(userID string) effective {
	if cached, ok := s.cache.Get(userID); ok {
		return cached.(effective)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wl, bl := newTrie(), newTrie()
	u, ok := s.users[userID]
	roleNames := map[string]bool{}
	if ok {
		for p := range u.whitelist.patterns {
			wl.add(p)
		}
		for p := range u.blacklist.patterns {
			bl.add(p)
		}
		for r := range u.roles {
			roleNames[r] = true
		}
	}
	if len(roleNames) == 0 && s.defaultRole != "" {
		roleNames[s.defaultRole] = true
	}

	visited := map[string]bool{}
	var walk func(name string)
	walk = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		role, ok := s.roles[name]
		if !ok {
			return
		}
		for p := range role.whitelist.patterns {
			wl.add(p)
		}
		for p := range role.blacklist.patterns {
			bl.add(p)
		}
		for parent := range role.parents {
			walk(parent)
		}
	}
	for r := range roleNames {
		walk(r)
	}

	eff := effective{whitelist: wl, blacklist: bl}
	s.cache.Add(userID, eff)
	return eff
}
