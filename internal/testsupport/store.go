package testsupport

import (
	"context"
	"testing"

	"srtgram/internal/config"
	"srtgram/internal/store"
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

// NewRun records a running run for tests.
func NewRun(t testing.TB, st *store.Store, id, source string) *store.Run {
	t.Helper()

	run := &store.Run{ID: id, Source: source, OutputDir: "/tmp/" + id}
	if err := st.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("store.CreateRun: %v", err)
	}
	return run
}
