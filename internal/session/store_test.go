package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	token := Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "bearer"}
	if err := store.Save(ctx, "sess-1", token); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Fatalf("unexpected token %+v", got)
	}

	count, err := store.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (err %v)", count, err)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreSaveReplaces(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, "sess-1", Token{AccessToken: "old"}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if err := store.Save(ctx, "sess-1", Token{AccessToken: "new"}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.AccessToken != "new" {
		t.Fatalf("expected replaced token, got %s", got.AccessToken)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	if err := store.Save(ctx, "sess-1", Token{AccessToken: "access"}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for lapsed entry, got %v", err)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Fatalf("expected count 0 after lapse, got %d", count)
	}
}
