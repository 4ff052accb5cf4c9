package whitelist_test

import (
	"context"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vkotelnikov/mistrelay/dbopen"
	"github.com/vkotelnikov/mistrelay/whitelist"
)

func newStore(t *testing.T) *whitelist.Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	s := whitelist.New(db)
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAllowed_EmptyList(t *testing.T) {
	s := newStore(t)

	ok, err := s.Allowed(context.Background(), "12345")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown user must be denied")
	}
}

func TestAddRemove(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, "12345"); err != nil {
		t.Fatal(err)
	}
	// Idempotent.
	if err := s.Add(ctx, "12345"); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Allowed(ctx, "12345")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("added user must be allowed")
	}

	if err := s.Remove(ctx, "12345"); err != nil {
		t.Fatal(err)
	}
	ok, err = s.Allowed(ctx, "12345")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("removed user must be denied")
	}

	// Removing again is a no-op.
	if err := s.Remove(ctx, "12345"); err != nil {
		t.Fatal(err)
	}
}

func TestList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Add(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
}
