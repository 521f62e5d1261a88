package rbac

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ncatbot/core/errors"
)

// document is the on-disk shape of the RBAC store (§6.3): a single document
// persisting users (with their role lists), roles, inheritance, trie
// contents, the case-sensitivity flag, and the default role. It stores no
// role->users index; role membership is read back from each user's roles.
type document struct {
	CaseSensitive bool                `yaml:"case_sensitive"`
	DefaultRole   string              `yaml:"default_role"`
	Users         map[string]userDoc  `yaml:"users"`
	Roles         map[string]roleDoc  `yaml:"roles"`
}

type userDoc struct {
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`
	Roles     []string `yaml:"roles"`
}

type roleDoc struct {
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`
	Parents   []string `yaml:"parents"`
}

// Save persists the full RBAC state to path as YAML.
func (s *Service) Save(path string) error {
	s.mu.RLock()
	doc := document{
		CaseSensitive: s.caseSensitive,
		DefaultRole:   s.defaultRole,
		Users:         make(map[string]userDoc, len(s.users)),
		Roles:         make(map[string]roleDoc, len(s.roles)),
	}
	for id, u := range s.users {
		doc.Users[id] = userDoc{
			Whitelist: u.whitelist.list(),
			Blacklist: u.blacklist.list(),
			Roles:     u.Roles(),
		}
	}
	for name, r := range s.roles {
		doc.Roles[name] = roleDoc{
			Whitelist: r.whitelist.list(),
			Blacklist: r.blacklist.list(),
			Parents:   r.Parents(),
		}
	}
	s.mu.RUnlock()

	out, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshaling rbac store")
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return errors.Wrapf(err, "writing rbac store to %s", path)
	}
	return nil
}

// Load replaces the service's state with the document at path. Loading a
// missing file yields an empty, ready-to-use service rather than an error.
func Load(path string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(true), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading rbac store from %s", path)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing rbac store %s", path)
	}

	s := New(doc.CaseSensitive)
	s.defaultRole = doc.DefaultRole
	for name, rd := range doc.Roles {
		r := s.EnsureRole(name)
		for _, p := range rd.Whitelist {
			r.whitelist.add(p)
		}
		for _, p := range rd.Blacklist {
			r.blacklist.add(p)
		}
		for _, p := range rd.Parents {
			r.parents[p] = true
		}
	}
	for id, ud := range doc.Users {
		u := s.EnsureUser(id)
		for _, p := range ud.Whitelist {
			u.whitelist.add(p)
		}
		for _, p := range ud.Blacklist {
			u.blacklist.add(p)
		}
		for _, r := range ud.Roles {
			u.roles[r] = true
		}
	}
	return s, nil
}
