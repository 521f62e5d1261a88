package rbac

// Role is a named permission bundle with whitelist/blacklist patterns and
// zero or more parent roles (DAG inheritance, §3.1).
type Role struct {
	Name      string
	whitelist *trie
	blacklist *trie
	parents   map[string]bool
}

func newRole(name string) *Role {
	return &Role{
		Name:      name,
		whitelist: newTrie(),
		blacklist: newTrie(),
		parents:   make(map[string]bool),
	}
}

// Whitelist returns the role's own (non-inherited) whitelist patterns.
func (r *Role) Whitelist() []string { return r.whitelist.list() }

// Blacklist returns the role's own (non-inherited) blacklist patterns.
func (r *Role) Blacklist() []string { return r.blacklist.list() }

// Parents returns the role's direct parent names.
func (r *Role) Parents() []string {
	out := make([]string, 0, len(r.parents))
	for p := range r.parents {
		out = append(out, p)
	}
	return out
}

// User is a principal with direct permission patterns plus a set of roles
// whose permissions it inherits transitively.
type User struct {
	ID        string
	whitelist *trie
	blacklist *trie
	roles     map[string]bool
}

func newUser(id string) *User {
	return &User{
		ID:        id,
		whitelist: newTrie(),
		blacklist: newTrie(),
		roles:     make(map[string]bool),
	}
}

// Roles returns the user's directly-assigned role names.
func (u *User) Roles() []string {
	out := make([]string, 0, len(u.roles))
	for r := range u.roles {
		out = append(out, r)
	}
	return out
}
