package testsupport

import (
	"context"
	"testing"

	"redline/internal/config"
	"redline/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRole creates a role for tests.
func NewRole(t testing.TB, st *store.Store, code, name string) *store.Role {
	t.Helper()

	role, err := st.CreateRole(context.Background(), code, name)
	if err != nil {
		t.Fatalf("store.CreateRole: %v", err)
	}
	return role
}

// NewUser creates a user holding the given roles for tests.
func NewUser(t testing.TB, st *store.Store, email string, roleIDs ...int64) *store.User {
	t.Helper()

	user, err := st.CreateUser(context.Background(), email, email, roleIDs...)
	if err != nil {
		t.Fatalf("store.CreateUser: %v", err)
	}
	return user
}

// NewEntries creates count records of the given content type and returns them.
func NewEntries(t testing.TB, st *store.Store, contentType string, count int) []*store.Entry {
	t.Helper()

	entries := make([]*store.Entry, 0, count)
	for i := 0; i < count; i++ {
		entry, err := st.CreateEntry(context.Background(), contentType, "", "")
		if err != nil {
			t.Fatalf("store.CreateEntry: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}
