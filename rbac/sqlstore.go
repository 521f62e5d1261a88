package rbac

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ncatbot/core/errors"
)

// SQLStore is an alternative to the flat YAML document (§4.6 "Persisted
// form") for deployments large enough to want normalized tables instead of
// one in-memory document: users, roles, role_parents, user_roles, and a
// single permissions table tagged whitelist/blacklist and user-or-role
// owned. It mirrors Service's state rather than replacing it — call Sync
// after mutating Service to flush the current snapshot.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) the SQLite-backed store at path and
// ensures its schema exists.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rbac sqlite store %s", path)
	}
	store := &SQLStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an already-open *sql.DB, e.g. one produced by
// DATA-DOG/go-sqlmock in tests.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS roles (name TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS role_parents (role TEXT, parent TEXT, PRIMARY KEY(role, parent))`,
		`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS user_roles (user_id TEXT, role TEXT, PRIMARY KEY(user_id, role))`,
		`CREATE TABLE IF NOT EXISTS permissions (
			owner_kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			list_kind TEXT NOT NULL,
			pattern TEXT NOT NULL,
			PRIMARY KEY(owner_kind, owner_id, list_kind, pattern)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migrating rbac sqlite schema")
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// Sync writes svc's full current state, replacing whatever was previously
// stored.
func (s *SQLStore) Sync(svc *Service) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning rbac sync transaction")
	}
	defer tx.Rollback()

	for _, table := range []string{"roles", "role_parents", "users", "user_roles", "permissions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return errors.Wrapf(err, "clearing table %s", table)
		}
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	for name, r := range svc.roles {
		if _, err := tx.Exec(`INSERT INTO roles(name) VALUES(?)`, name); err != nil {
			return errors.Wrap(err, "inserting role")
		}
		for parent := range r.parents {
			if _, err := tx.Exec(`INSERT INTO role_parents(role, parent) VALUES(?,?)`, name, parent); err != nil {
				return errors.Wrap(err, "inserting role_parents")
			}
		}
		if err := insertPermissions(tx, "role", name, "whitelist", r.whitelist.list()); err != nil {
			return err
		}
		if err := insertPermissions(tx, "role", name, "blacklist", r.blacklist.list()); err != nil {
			return err
		}
	}

	for id, u := range svc.users {
		if _, err := tx.Exec(`INSERT INTO users(id) VALUES(?)`, id); err != nil {
			return errors.Wrap(err, "inserting user")
		}
		for role := range u.roles {
			if _, err := tx.Exec(`INSERT INTO user_roles(user_id, role) VALUES(?,?)`, id, role); err != nil {
				return errors.Wrap(err, "inserting user_roles")
			}
		}
		if err := insertPermissions(tx, "user", id, "whitelist", u.whitelist.list()); err != nil {
			return err
		}
		if err := insertPermissions(tx, "user", id, "blacklist", u.blacklist.list()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertPermissions(tx *sql.Tx, ownerKind, ownerID, listKind string, patterns []string) error {
	for _, p := range patterns {
		if _, err := tx.Exec(
			`INSERT INTO permissions(owner_kind, owner_id, list_kind, pattern) VALUES(?,?,?,?)`,
			ownerKind, ownerID, listKind, p,
		); err != nil {
			return errors.Wrap(err, "inserting permission")
		}
	}
	return nil
}
